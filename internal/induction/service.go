// Package induction handles worker induction submissions: the one-time
// registration that creates a worker and their first certification row.
package induction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildsafe/siteward/internal/model"
	"github.com/buildsafe/siteward/internal/repository"
	"github.com/buildsafe/siteward/internal/security"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError lists per-field problems with a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "invalid induction submission" }

// Request is one induction form submission. CSRF and honeypot screening
// happen in the handler before the service is reached; the induction form
// is not per-worker idempotent the way check-in is, so there is no
// decision pipeline here.
type Request struct {
	Email      string
	FirstName  string
	LastName   string
	CardNumber string
	ExpiresAt  *time.Time
}

// Service creates workers from induction submissions.
type Service struct {
	workers   repository.WorkerRepository
	certs     repository.CertificationRepository
	sanitizer security.TextSanitizerService
	logger    *slog.Logger

	// Now supplies the current time; tests override it.
	Now func() time.Time
}

// NewService creates an induction Service.
func NewService(
	workers repository.WorkerRepository,
	certs repository.CertificationRepository,
	sanitizer security.TextSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		workers:   workers,
		certs:     certs,
		sanitizer: sanitizer,
		logger:    logger,
		Now:       time.Now,
	}
}

// Submit validates the form, creates the worker and inserts the initial
// "Awaiting Review" white card row. A duplicate email surfaces as
// model.ErrDuplicateWorker; input problems as *ValidationError.
func (s *Service) Submit(ctx context.Context, req Request) (*model.Worker, error) {
	fields := map[string]string{}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		fields["email"] = "Please enter a valid email address."
	}

	firstName := s.sanitizer.Sanitize(req.FirstName)
	if firstName == "" {
		fields["firstName"] = "First name is required."
	}
	lastName := s.sanitizer.Sanitize(req.LastName)
	if lastName == "" {
		fields["lastName"] = "Last name is required."
	}

	cardNumber := s.sanitizer.Sanitize(req.CardNumber)
	if cardNumber == "" {
		fields["cardNumber"] = "White card number is required."
	}
	if req.ExpiresAt == nil {
		fields["expiresAt"] = "White card expiry date is required."
	} else if !req.ExpiresAt.After(s.Now()) {
		fields["expiresAt"] = "The white card expiry date must be in the future."
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	now := s.Now().UTC()
	worker := &model.Worker{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
	}

	if err := s.workers.Create(ctx, worker); err != nil {
		if errors.Is(err, model.ErrDuplicateWorker) {
			return nil, model.ErrDuplicateWorker
		}
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	cert := &model.Certification{
		ID:         uuid.NewString(),
		WorkerID:   worker.ID,
		Type:       model.CertificationTypeWhiteCard,
		Status:     model.CertificationStatusAwaitingReview,
		CardNumber: cardNumber,
		ExpiresAt:  req.ExpiresAt,
		CreatedAt:  now,
	}

	if err := s.certs.Create(ctx, cert); err != nil {
		// the worker row exists without a card; review will catch it,
		// but the submission must still fail loudly
		return nil, fmt.Errorf("failed to create certification: %w", err)
	}

	s.logger.Info("worker inducted",
		slog.String("worker_id", worker.ID),
		slog.String("email", email),
	)

	return worker, nil
}
