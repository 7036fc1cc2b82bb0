// Package alert defines compliance-alert payloads and their dispatch queue.
//
// The check-in flow dispatches an alert when a worker is denied entry for an
// expired white card. Dispatch is fire-and-forget from the caller's point of
// view: enqueueing the payload ends the orchestrator's responsibility, and a
// background worker delivers it to the external alerting collaborator.
package alert

import (
	"context"
	"time"
)

// TypeComplianceAlert is the payload type accepted by the alerting collaborator.
const TypeComplianceAlert = "compliance_alert"

// ReasonExpiredWhiteCard is the reason code for expired-certification denials.
// It is matched verbatim by the downstream consumer.
const ReasonExpiredWhiteCard = "Expired white card"

// Alert is the payload sent to the alerting collaborator.
// Site fields are best-effort context and may be empty when the worker was
// not within range of any site.
type Alert struct {
	Type        string    `json:"type"`
	WorkerID    string    `json:"workerId"`
	WorkerName  string    `json:"workerName"`
	WorkerEmail string    `json:"workerEmail"`
	SiteID      string    `json:"siteId,omitempty"`
	SiteName    string    `json:"siteName,omitempty"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Outcome is the alerting collaborator's response to a delivered alert.
// All three outcomes (delivered, skipped, errored) are non-fatal to the
// check-in decision that triggered the alert; they are logged only.
type Outcome struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	AuditID string `json:"auditId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Dispatcher enqueues alerts for asynchronous delivery.
type Dispatcher interface {
	// Dispatch hands the alert to the delivery queue. An error means the
	// alert could not be enqueued; callers treat this as non-fatal.
	Dispatch(ctx context.Context, a Alert) error
}
