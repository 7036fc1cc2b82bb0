package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildsafe/siteward/internal/alert"
	"github.com/buildsafe/siteward/internal/geo"
	"github.com/buildsafe/siteward/internal/metrics"
	"github.com/buildsafe/siteward/internal/model"
	"github.com/buildsafe/siteward/internal/repository"
)

// expiryWarningWindow is how close to expiry a valid white card may be
// before the success message carries a day-count warning.
const expiryWarningWindow = 30 * 24 * time.Hour

// emailPattern is the basic shape check applied before lookup.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service is the check-in orchestrator.
type Service struct {
	workers     repository.WorkerRepository
	sites       repository.JobSiteRepository
	certs       repository.CertificationRepository
	attendances repository.AttendanceRepository
	alerts      alert.Dispatcher
	logger      *slog.Logger
	recorder    metrics.CheckInRecorder

	// Now supplies the current time; tests override it.
	Now func() time.Time
}

// NewService creates a check-in Service. recorder may be nil when metrics
// are not wired (tests).
func NewService(
	workers repository.WorkerRepository,
	sites repository.JobSiteRepository,
	certs repository.CertificationRepository,
	attendances repository.AttendanceRepository,
	alerts alert.Dispatcher,
	logger *slog.Logger,
	recorder metrics.CheckInRecorder,
) *Service {
	return &Service{
		workers:     workers,
		sites:       sites,
		certs:       certs,
		attendances: attendances,
		alerts:      alerts,
		logger:      logger,
		recorder:    recorder,
		Now:         time.Now,
	}
}

// CheckIn runs the full decision pipeline for one submission.
// Every branch returns a Result; a panic from a collaborator is mapped to
// the generic form error at this boundary.
func (s *Service) CheckIn(ctx context.Context, req Request) (res Result) {
	start := s.Now()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("check-in panicked",
				slog.Any("panic", rec),
			)
			res = failure(OutcomeInfraError, FieldForm, MsgGenericFailure)
		}
		s.record(res, start)
	}()

	// 1. Request-integrity gate. Checked before validation and before any
	// data access. The same generic message covers both checks so a probe
	// cannot tell which one tripped.
	if req.Honeypot != "" {
		s.logger.Warn("check-in rejected: honeypot populated")
		return failure(OutcomeSecurityRejected, FieldForm, MsgSecurityFailed)
	}
	if req.CSRFToken == "" || req.CookieToken == "" || req.CSRFToken != req.CookieToken {
		s.logger.Warn("check-in rejected: csrf token mismatch")
		return failure(OutcomeSecurityRejected, FieldForm, MsgSecurityFailed)
	}

	// 2. Input validation. Independent field checks accumulate into one
	// error map instead of short-circuiting between each other.
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fieldErrors := map[string]string{}
	if !emailPattern.MatchString(email) {
		fieldErrors[FieldEmail] = MsgInvalidEmail
	}
	if req.Coords == nil {
		fieldErrors[FieldLocation] = MsgMissingCoords
	}
	if len(fieldErrors) > 0 {
		return Result{Errors: fieldErrors, Outcome: OutcomeInvalidInput}
	}

	// 3. Worker resolution. A lookup failure and a genuine miss share one
	// message so infrastructure state is not leaked to an unauthenticated
	// caller.
	worker, err := s.workers.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("worker lookup failed", slog.String("error", err.Error()))
		return failure(OutcomeUnknownWorker, FieldEmail, MsgUnknownWorker)
	}
	if worker == nil {
		return failure(OutcomeUnknownWorker, FieldEmail, MsgUnknownWorker)
	}

	// 4. Site-set retrieval.
	sites, err := s.sites.ListActive(ctx)
	if err != nil {
		s.logger.Error("active site retrieval failed", slog.String("error", err.Error()))
		return failure(OutcomeInfraError, FieldForm, MsgGenericFailure)
	}
	if len(sites) == 0 {
		return failure(OutcomeNoActiveSites, FieldLocation, MsgNoActiveSites)
	}

	// 5. Nearest-site resolution, ahead of the certification checks so an
	// expiry alert can carry site context even when the response will also
	// fail for range reasons.
	nearest, distance, inRange := geo.NearestSite(req.Coords.Lat, req.Coords.Lng, sites)

	// 6. Certification lookup: the latest white-card row is authoritative.
	cert, err := s.certs.FindLatestByWorkerAndType(ctx, worker.ID, model.CertificationTypeWhiteCard)
	if err != nil {
		s.logger.Error("certification lookup failed",
			slog.String("worker_id", worker.ID),
			slog.String("error", err.Error()),
		)
		return failure(OutcomeInfraError, FieldForm, MsgGenericFailure)
	}
	if cert == nil {
		return failure(OutcomeMissingCard, FieldForm, MsgMissingCard)
	}
	if cert.Status != model.CertificationStatusValid {
		// Data-completeness problem, not a policy violation: no alert.
		return failure(OutcomeUnvalidatedCard, FieldForm, MsgCardNotValid)
	}

	// 7. Expiry evaluation. A denial dispatches a compliance alert with
	// best-effort site context; the dispatch outcome never changes the
	// response.
	now := s.Now()
	if cert.Expired(now) {
		s.dispatchExpiredAlert(ctx, worker, email, nearest)
		return failure(OutcomeExpiredCard, FieldForm, MsgExpiredCard)
	}

	// 8. Range enforcement, after certification so an out-of-range worker
	// with a valid card gets a location message rather than a card message.
	if !inRange {
		return failure(OutcomeOutOfRange, FieldLocation, MsgOutOfRange)
	}

	// 9. Duplicate enforcement for the current UTC calendar day.
	exists, err := s.attendances.ExistsForUTCDay(ctx, worker.ID, nearest.ID, now)
	if err != nil {
		s.logger.Error("duplicate check failed", slog.String("error", err.Error()))
		return failure(OutcomeInfraError, FieldForm, MsgGenericFailure)
	}
	if exists {
		return failure(OutcomeDuplicate, FieldForm, duplicateMessage(nearest.Name))
	}

	// 10. Commit. The unique (worker, site, UTC day) index backs this up:
	// a concurrent double submission that slipped past step 9 surfaces
	// here as the same duplicate error.
	attendance := &model.SiteAttendance{
		ID:          uuid.NewString(),
		WorkerID:    worker.ID,
		JobSiteID:   nearest.ID,
		CheckedInAt: now,
		Latitude:    req.Coords.Lat,
		Longitude:   req.Coords.Lng,
	}
	if err := s.attendances.Create(ctx, attendance); err != nil {
		if err == model.ErrDuplicateAttendance {
			return failure(OutcomeDuplicate, FieldForm, duplicateMessage(nearest.Name))
		}
		s.logger.Error("attendance insert failed", slog.String("error", err.Error()))
		return failure(OutcomeInfraError, FieldForm, MsgGenericFailure)
	}

	s.logger.Info("worker checked in",
		slog.String("worker_id", worker.ID),
		slog.String("site_id", nearest.ID),
		slog.String("site_name", nearest.Name),
		slog.Float64("distance_m", distance),
	)

	// 11. Success composition, with a non-blocking warning when the card
	// expires within the warning window.
	message := fmt.Sprintf("Successfully checked in to %s! Stay safe on site.", nearest.Name)
	if cert.ExpiresAt.Sub(now) <= expiryWarningWindow {
		days := int(cert.ExpiresAt.Sub(now).Hours() / 24)
		message += fmt.Sprintf(" Your white card expires in %d days.", days)
	}

	return Result{OK: true, Message: message, Outcome: OutcomeSuccess}
}

// duplicateMessage names the site in the duplicate-check-in denial.
func duplicateMessage(siteName string) string {
	return fmt.Sprintf("You have already checked in to %s today.", siteName)
}

// dispatchExpiredAlert enqueues a non-compliance alert for an expired white
// card. Best-effort: failures are logged and swallowed, the denial already
// decided stands either way.
func (s *Service) dispatchExpiredAlert(ctx context.Context, worker *model.Worker, email string, site *model.JobSite) {
	a := alert.Alert{
		Type:        alert.TypeComplianceAlert,
		WorkerID:    worker.ID,
		WorkerName:  worker.FullName(),
		WorkerEmail: email,
		Reason:      alert.ReasonExpiredWhiteCard,
		OccurredAt:  s.Now().UTC(),
	}
	if site != nil {
		a.SiteID = site.ID
		a.SiteName = site.Name
	}

	err := s.alerts.Dispatch(ctx, a)
	if s.recorder != nil {
		s.recorder.RecordAlertEnqueue(err == nil)
	}
	if err != nil {
		s.logger.Error("compliance alert dispatch failed",
			slog.String("worker_id", worker.ID),
			slog.String("reason", a.Reason),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("compliance alert dispatched",
		slog.String("worker_id", worker.ID),
		slog.String("reason", a.Reason),
		slog.String("site_id", a.SiteID),
	)
}

// record feeds the decision outcome and latency to the metrics collector.
func (s *Service) record(res Result, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordDecision(res.Outcome)
	s.recorder.RecordCheckInLatency(s.Now().Sub(start))
}
