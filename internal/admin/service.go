// Package admin implements the authenticated back-office operations:
// job site and contractor management, attendance review, white card
// review and SWMS link issuance.
package admin

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildsafe/siteward/internal/model"
	"github.com/buildsafe/siteward/internal/repository"
	"github.com/buildsafe/siteward/internal/security"
	"github.com/buildsafe/siteward/internal/swms"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError maps field names to human-readable problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid fields", len(e.Fields))
}

// JobSiteInput carries the mutable fields of a job site.
type JobSiteInput struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Active       bool
}

// ContractorInput carries the mutable fields of a contractor.
type ContractorInput struct {
	Name         string
	ContactName  string
	ContactEmail string
}

// CertificationReviewInput records a review decision on a worker's card.
type CertificationReviewInput struct {
	WorkerID   string
	Status     model.CertificationStatus
	CardNumber string
	ExpiresAt  *time.Time
}

// SWMSTokenResult is an issued upload link token and its expiry.
type SWMSTokenResult struct {
	Token     string
	ExpiresAt time.Time
}

// Service implements the back-office operations.
type Service struct {
	sites       repository.JobSiteRepository
	contractors repository.ContractorRepository
	attendances repository.AttendanceRepository
	workers     repository.WorkerRepository
	certs       repository.CertificationRepository
	tokens      *swms.TokenService
	sanitizer   security.TextSanitizerService

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// NewService creates an admin Service.
func NewService(
	sites repository.JobSiteRepository,
	contractors repository.ContractorRepository,
	attendances repository.AttendanceRepository,
	workers repository.WorkerRepository,
	certs repository.CertificationRepository,
	tokens *swms.TokenService,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		sites:       sites,
		contractors: contractors,
		attendances: attendances,
		workers:     workers,
		certs:       certs,
		tokens:      tokens,
		sanitizer:   sanitizer,
		Now:         time.Now,
	}
}

// ListJobSites returns all job sites, ordered by name.
func (s *Service) ListJobSites(ctx context.Context) ([]*model.JobSite, error) {
	sites, err := s.sites.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list job sites: %w", err)
	}
	return sites, nil
}

// GetJobSite returns one job site.
func (s *Service) GetJobSite(ctx context.Context, id string) (*model.JobSite, error) {
	site, err := s.sites.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find job site: %w", err)
	}
	if site == nil {
		return nil, model.NewJobSiteNotFoundError(id)
	}
	return site, nil
}

// CreateJobSite validates and inserts a job site.
func (s *Service) CreateJobSite(ctx context.Context, input JobSiteInput) (*model.JobSite, error) {
	input.Name = s.sanitizer.Sanitize(input.Name)
	if err := validateJobSiteInput(input); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	site := &model.JobSite{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		RadiusMeters: input.RadiusMeters,
		Active:       input.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to create job site: %w", err)
	}
	return site, nil
}

// UpdateJobSite validates and overwrites a job site's mutable fields.
func (s *Service) UpdateJobSite(ctx context.Context, id string, input JobSiteInput) (*model.JobSite, error) {
	site, err := s.GetJobSite(ctx, id)
	if err != nil {
		return nil, err
	}

	input.Name = s.sanitizer.Sanitize(input.Name)
	if err := validateJobSiteInput(input); err != nil {
		return nil, err
	}

	site.Name = input.Name
	site.Latitude = input.Latitude
	site.Longitude = input.Longitude
	site.RadiusMeters = input.RadiusMeters
	site.Active = input.Active
	site.UpdatedAt = s.Now().UTC()

	if err := s.sites.Update(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to update job site: %w", err)
	}
	return site, nil
}

// DeactivateJobSite marks a site inactive so it no longer accepts
// check-ins. Sites are never hard-deleted because attendance rows
// reference them.
func (s *Service) DeactivateJobSite(ctx context.Context, id string) (*model.JobSite, error) {
	site, err := s.GetJobSite(ctx, id)
	if err != nil {
		return nil, err
	}

	site.Active = false
	site.UpdatedAt = s.Now().UTC()
	if err := s.sites.Update(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to deactivate job site: %w", err)
	}
	return site, nil
}

func validateJobSiteInput(input JobSiteInput) error {
	fields := map[string]string{}
	if input.Name == "" {
		fields["name"] = "Site name is required."
	}
	if input.Latitude < -90 || input.Latitude > 90 {
		fields["latitude"] = "Latitude must be between -90 and 90."
	}
	if input.Longitude < -180 || input.Longitude > 180 {
		fields["longitude"] = "Longitude must be between -180 and 180."
	}
	if input.RadiusMeters <= 0 {
		fields["radiusMeters"] = "Radius must be greater than zero."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ListContractors returns all contractors, ordered by name.
func (s *Service) ListContractors(ctx context.Context) ([]*model.Contractor, error) {
	contractors, err := s.contractors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}
	return contractors, nil
}

// GetContractor returns one contractor.
func (s *Service) GetContractor(ctx context.Context, id string) (*model.Contractor, error) {
	contractor, err := s.contractors.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find contractor: %w", err)
	}
	if contractor == nil {
		return nil, model.NewContractorNotFoundError(id)
	}
	return contractor, nil
}

// CreateContractor validates and inserts a contractor.
func (s *Service) CreateContractor(ctx context.Context, input ContractorInput) (*model.Contractor, error) {
	input = s.sanitizeContractorInput(input)
	if err := validateContractorInput(input); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	contractor := &model.Contractor{
		ID:           uuid.New().String(),
		Name:         input.Name,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.contractors.Create(ctx, contractor); err != nil {
		return nil, fmt.Errorf("failed to create contractor: %w", err)
	}
	return contractor, nil
}

// UpdateContractor validates and overwrites a contractor's mutable fields.
func (s *Service) UpdateContractor(ctx context.Context, id string, input ContractorInput) (*model.Contractor, error) {
	contractor, err := s.GetContractor(ctx, id)
	if err != nil {
		return nil, err
	}

	input = s.sanitizeContractorInput(input)
	if err := validateContractorInput(input); err != nil {
		return nil, err
	}

	contractor.Name = input.Name
	contractor.ContactName = input.ContactName
	contractor.ContactEmail = input.ContactEmail
	contractor.UpdatedAt = s.Now().UTC()

	if err := s.contractors.Update(ctx, contractor); err != nil {
		return nil, fmt.Errorf("failed to update contractor: %w", err)
	}
	return contractor, nil
}

// DeleteContractor removes a contractor.
func (s *Service) DeleteContractor(ctx context.Context, id string) error {
	if _, err := s.GetContractor(ctx, id); err != nil {
		return err
	}
	if err := s.contractors.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contractor: %w", err)
	}
	return nil
}

func (s *Service) sanitizeContractorInput(input ContractorInput) ContractorInput {
	input.Name = s.sanitizer.Sanitize(input.Name)
	input.ContactName = s.sanitizer.Sanitize(input.ContactName)
	input.ContactEmail = normalizeEmail(s.sanitizer.Sanitize(input.ContactEmail))
	return input
}

func validateContractorInput(input ContractorInput) error {
	fields := map[string]string{}
	if input.Name == "" {
		fields["name"] = "Company name is required."
	}
	if input.ContactEmail != "" && !emailPattern.MatchString(input.ContactEmail) {
		fields["contactEmail"] = "Please enter a valid email address."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// AttendanceEntry is one attendance row joined with its worker.
type AttendanceEntry struct {
	Attendance *model.SiteAttendance
	Worker     *model.Worker
}

// ListAttendances returns the check-ins recorded for a site within the
// UTC calendar day containing day, newest first, each joined with its
// worker. A missing worker row leaves Worker nil rather than failing
// the whole listing.
func (s *Service) ListAttendances(ctx context.Context, jobSiteID string, day time.Time) ([]AttendanceEntry, error) {
	if _, err := s.GetJobSite(ctx, jobSiteID); err != nil {
		return nil, err
	}

	rows, err := s.attendances.ListBySiteAndUTCDay(ctx, jobSiteID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}

	entries := make([]AttendanceEntry, 0, len(rows))
	for _, row := range rows {
		worker, err := s.workers.FindByID(ctx, row.WorkerID)
		if err != nil {
			return nil, fmt.Errorf("failed to find worker %s: %w", row.WorkerID, err)
		}
		entries = append(entries, AttendanceEntry{Attendance: row, Worker: worker})
	}
	return entries, nil
}

// ReviewCertification records a review decision as a new certification
// row. The history is append-only; the new row becomes the worker's
// current card state.
func (s *Service) ReviewCertification(ctx context.Context, input CertificationReviewInput) (*model.Certification, error) {
	fields := map[string]string{}
	switch input.Status {
	case model.CertificationStatusValid, model.CertificationStatusExpired, model.CertificationStatusAwaitingReview:
	default:
		fields["status"] = "Status must be Valid, Expired or Awaiting Review."
	}
	if input.Status == model.CertificationStatusValid && input.ExpiresAt == nil {
		fields["expiresAt"] = "An expiry date is required to mark a card valid."
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	worker, err := s.workers.FindByID(ctx, input.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find worker: %w", err)
	}
	if worker == nil {
		return nil, model.NewWorkerNotFoundError(input.WorkerID)
	}

	cardNumber := s.sanitizer.Sanitize(input.CardNumber)
	if cardNumber == "" {
		latest, err := s.certs.FindLatestByWorkerAndType(ctx, worker.ID, model.CertificationTypeWhiteCard)
		if err != nil {
			return nil, fmt.Errorf("failed to find current certification: %w", err)
		}
		if latest != nil {
			cardNumber = latest.CardNumber
		}
	}

	cert := &model.Certification{
		ID:         uuid.New().String(),
		WorkerID:   worker.ID,
		Type:       model.CertificationTypeWhiteCard,
		Status:     input.Status,
		CardNumber: cardNumber,
		ExpiresAt:  input.ExpiresAt,
		CreatedAt:  s.Now().UTC(),
	}
	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, fmt.Errorf("failed to create certification: %w", err)
	}
	return cert, nil
}

// ListWorkerCertifications returns a worker's full card history, newest first.
func (s *Service) ListWorkerCertifications(ctx context.Context, workerID string) ([]*model.Certification, error) {
	worker, err := s.workers.FindByID(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find worker: %w", err)
	}
	if worker == nil {
		return nil, model.NewWorkerNotFoundError(workerID)
	}

	certs, err := s.certs.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	return certs, nil
}

// IssueSWMSToken mints a signed upload link token for a contractor and
// job site pair after verifying both exist.
func (s *Service) IssueSWMSToken(ctx context.Context, contractorID, jobSiteID string) (*SWMSTokenResult, error) {
	if _, err := s.GetContractor(ctx, contractorID); err != nil {
		return nil, err
	}
	if _, err := s.GetJobSite(ctx, jobSiteID); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(contractorID, jobSiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &SWMSTokenResult{Token: token, ExpiresAt: expiresAt}, nil
}
