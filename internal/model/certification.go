// Package model defines the domain model.
package model

import "time"

// CertificationType identifies the kind of safety certification.
type CertificationType string

const (
	// CertificationTypeWhiteCard is the general construction induction card.
	CertificationTypeWhiteCard CertificationType = "white_card"
)

// CertificationStatus is the review state of a certification record.
type CertificationStatus string

const (
	// CertificationStatusValid means the card has been reviewed and accepted.
	CertificationStatusValid CertificationStatus = "Valid"
	// CertificationStatusExpired means the card was marked expired by review.
	CertificationStatusExpired CertificationStatus = "Expired"
	// CertificationStatusAwaitingReview means the card upload has not been reviewed yet.
	CertificationStatusAwaitingReview CertificationStatus = "Awaiting Review"
)

// Certification is one row of a worker's append-only certification history.
// A status change is expressed by inserting a new row; the current
// certification for a worker is the most-recently-created row of the
// relevant type. Rows are never updated or deleted.
type Certification struct {
	ID         string
	WorkerID   string
	Type       CertificationType
	Status     CertificationStatus
	CardNumber string
	ExpiresAt  *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the certification denies entry as of now.
// A missing expiry date is treated as expired.
func (c *Certification) Expired(now time.Time) bool {
	return c.ExpiresAt == nil || !c.ExpiresAt.After(now)
}
