package alert

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeListPusher records LPush calls without a Redis server.
type fakeListPusher struct {
	key     string
	payload []byte
	err     error
	calls   int
}

func (f *fakeListPusher) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.calls++
	f.key = key
	if len(values) == 1 {
		if b, ok := values[0].([]byte); ok {
			f.payload = b
		}
	}
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	}
	return cmd
}

func TestRedisQueue_Dispatch(t *testing.T) {
	pusher := &fakeListPusher{}
	q := NewRedisQueue(pusher, "siteward:compliance_alerts")

	occurred := time.Date(2026, 8, 31, 6, 30, 0, 0, time.UTC)
	a := Alert{
		Type:        TypeComplianceAlert,
		WorkerID:    "w-1",
		WorkerName:  "John Worker",
		WorkerEmail: "john.worker@example.com",
		SiteID:      "site-1",
		SiteName:    "Kwinana Substation",
		Reason:      ReasonExpiredWhiteCard,
		OccurredAt:  occurred,
	}

	if err := q.Dispatch(context.Background(), a); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if pusher.calls != 1 {
		t.Fatalf("LPush calls = %d, want 1", pusher.calls)
	}
	if pusher.key != "siteward:compliance_alerts" {
		t.Errorf("key = %q", pusher.key)
	}

	var decoded Alert
	if err := json.Unmarshal(pusher.payload, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.Reason != ReasonExpiredWhiteCard {
		t.Errorf("reason = %q, want %q", decoded.Reason, ReasonExpiredWhiteCard)
	}
	if decoded.Type != TypeComplianceAlert {
		t.Errorf("type = %q, want %q", decoded.Type, TypeComplianceAlert)
	}
	if !decoded.OccurredAt.Equal(occurred) {
		t.Errorf("occurredAt = %v, want %v", decoded.OccurredAt, occurred)
	}
}

func TestRedisQueue_DispatchError(t *testing.T) {
	pusher := &fakeListPusher{err: errors.New("connection refused")}
	q := NewRedisQueue(pusher, "alerts")

	err := q.Dispatch(context.Background(), Alert{Reason: ReasonExpiredWhiteCard})
	if err == nil {
		t.Fatal("expected error when LPush fails")
	}
}

func TestAlert_SiteFieldsOmittedWhenEmpty(t *testing.T) {
	payload, err := json.Marshal(Alert{
		Type:   TypeComplianceAlert,
		Reason: ReasonExpiredWhiteCard,
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, present := raw["siteId"]; present {
		t.Error("siteId should be omitted when empty")
	}
	if _, present := raw["siteName"]; present {
		t.Error("siteName should be omitted when empty")
	}
}
