// Package alerts implements the compliance-alert delivery worker. It
// consumes the Redis queue filled by the check-in flow and POSTs each
// payload to the configured webhook.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buildsafe/siteward/internal/alert"
	"github.com/buildsafe/siteward/internal/metrics"
)

// QueueClient is the subset of the Redis client the deliverer uses.
// *redis.Client satisfies it.
type QueueClient interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// envelope is the queued payload. A fresh alert from the check-in flow
// carries no deliveryAttempts field; the deliverer adds it when it
// re-queues an alert whose in-place retries were exhausted.
type envelope struct {
	alert.Alert
	Attempts int `json:"deliveryAttempts,omitempty"`
}

// Config holds the deliverer settings.
type Config struct {
	QueueKey    string
	WebhookURL  string
	PollTimeout time.Duration
	MaxAttempts int
}

// Deliverer drains the alert queue and delivers each alert to the
// webhook with retry and backoff.
type Deliverer struct {
	queue      QueueClient
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
	recorder   metrics.DeliveryRecorder

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDeliverer creates a Deliverer. httpClient should come from
// security.SSRFGuardService so the webhook URL cannot reach internal
// addresses. recorder may be nil.
func NewDeliverer(
	queue QueueClient,
	httpClient *http.Client,
	config Config,
	logger *slog.Logger,
	recorder metrics.DeliveryRecorder,
) *Deliverer {
	if config.PollTimeout <= 0 {
		config.PollTimeout = 5 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &Deliverer{
		queue:      queue,
		httpClient: httpClient,
		config:     config,
		logger:     logger,
		recorder:   recorder,
		sleep:      sleepCtx,
	}
}

// Run consumes the queue until the context is cancelled.
func (d *Deliverer) Run(ctx context.Context) error {
	d.logger.Info("alert deliverer started",
		slog.String("queue", d.config.QueueKey),
		slog.Int("max_attempts", d.config.MaxAttempts),
	)

	for {
		if err := ctx.Err(); err != nil {
			d.logger.Info("alert deliverer stopped")
			return nil
		}

		res, err := d.queue.BRPop(ctx, d.config.PollTimeout, d.config.QueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // queue empty, poll again
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				d.logger.Info("alert deliverer stopped")
				return nil
			}
			d.logger.Error("failed to pop alert from queue",
				slog.String("error", err.Error()),
			)
			if serr := d.sleep(ctx, time.Second); serr != nil {
				return nil
			}
			continue
		}

		// BRPop returns [key, value]
		if len(res) != 2 {
			continue
		}
		d.handle(ctx, []byte(res[1]))
	}
}

// handle delivers one queued payload, retrying transient failures in
// place and re-queueing once when retries are exhausted.
func (d *Deliverer) handle(ctx context.Context, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		d.logger.Error("dropping malformed alert payload",
			slog.String("error", err.Error()),
		)
		d.record("malformed")
		return
	}

	for attempt := 0; attempt < d.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := d.sleep(ctx, CalculateBackoff(attempt-1)); err != nil {
				return
			}
		}

		result, retryable := d.deliver(ctx, &env)
		if !retryable {
			d.record(result)
			return
		}
		d.record("retried")
	}

	// retries exhausted: give the alert one more pass through the queue,
	// then drop it for good
	if env.Attempts == 0 {
		env.Attempts = d.config.MaxAttempts
		requeued, err := json.Marshal(env)
		if err == nil {
			if perr := d.queue.LPush(ctx, d.config.QueueKey, requeued).Err(); perr == nil {
				d.logger.Warn("alert re-queued after exhausting retries",
					slog.String("worker_id", env.WorkerID),
				)
				d.record("requeued")
				return
			}
		}
	}

	d.logger.Error("alert dropped after exhausting retries",
		slog.String("worker_id", env.WorkerID),
		slog.String("reason", env.Reason),
	)
	d.record("failed")
}

// deliver POSTs the alert once. It returns the terminal metric status and
// whether the failure is worth retrying.
func (d *Deliverer) deliver(ctx context.Context, env *envelope) (status string, retryable bool) {
	body, err := json.Marshal(env.Alert)
	if err != nil {
		return "malformed", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "failed", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Warn("alert delivery request failed",
			slog.String("error", err.Error()),
			slog.String("worker_id", env.WorkerID),
		)
		return "", true
	}
	defer resp.Body.Close()

	switch ClassifyHTTPStatus(resp.StatusCode) {
	case DeliveryResultOK:
		outcome := parseOutcome(resp.Body)
		if outcome.Skipped {
			d.logger.Info("alert skipped by collaborator",
				slog.String("worker_id", env.WorkerID),
				slog.String("audit_id", outcome.AuditID),
			)
			return "skipped", false
		}
		d.logger.Info("alert delivered",
			slog.String("worker_id", env.WorkerID),
			slog.String("reason", env.Reason),
			slog.String("audit_id", outcome.AuditID),
		)
		return "delivered", false
	case DeliveryResultBackoff:
		d.logger.Warn("alert delivery throttled or failed upstream",
			slog.Int("status", resp.StatusCode),
			slog.String("worker_id", env.WorkerID),
		)
		return "", true
	default:
		d.logger.Error("alert rejected by collaborator",
			slog.Int("status", resp.StatusCode),
			slog.String("worker_id", env.WorkerID),
		)
		return "rejected", false
	}
}

func (d *Deliverer) record(status string) {
	if d.recorder != nil {
		d.recorder.RecordAlertDelivery(status)
	}
}

// parseOutcome reads the collaborator's response body. The outcome is
// informational only; a parse failure yields the zero Outcome.
func parseOutcome(r io.Reader) alert.Outcome {
	var outcome alert.Outcome
	body, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil {
		return outcome
	}
	if err := json.Unmarshal(body, &outcome); err != nil {
		return alert.Outcome{Error: fmt.Sprintf("unparseable response: %.100s", body)}
	}
	return outcome
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
