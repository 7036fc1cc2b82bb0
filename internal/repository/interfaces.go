// Package repository defines the persistence interfaces.
package repository

import (
	"context"
	"time"

	"github.com/buildsafe/siteward/internal/model"
)

// WorkerRepository persists inducted workers.
type WorkerRepository interface {
	// FindByEmail looks up a worker by email, case-insensitively.
	// Returns nil when no worker matches.
	FindByEmail(ctx context.Context, email string) (*model.Worker, error)

	// FindByID returns the worker with the given ID, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.Worker, error)

	// Create inserts a worker. Returns model.ErrDuplicateWorker when the
	// email is already taken (case-insensitive).
	Create(ctx context.Context, worker *model.Worker) error
}

// JobSiteRepository persists job sites.
type JobSiteRepository interface {
	// FindByID returns the job site with the given ID, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.JobSite, error)

	// ListActive returns all sites with active = true, ordered by name.
	ListActive(ctx context.Context) ([]*model.JobSite, error)

	// List returns all sites, ordered by name.
	List(ctx context.Context) ([]*model.JobSite, error)

	// Create inserts a job site.
	Create(ctx context.Context, site *model.JobSite) error

	// Update overwrites the mutable fields of a job site.
	Update(ctx context.Context, site *model.JobSite) error
}

// CertificationRepository persists the append-only certification history.
// There is no update or delete: a status change is a new row.
type CertificationRepository interface {
	// Create appends a certification row.
	Create(ctx context.Context, cert *model.Certification) error

	// FindLatestByWorkerAndType returns the most-recently-created
	// certification of the given type for the worker, or nil when the
	// worker has no certification of that type. The latest row is the
	// authoritative one.
	FindLatestByWorkerAndType(ctx context.Context, workerID string, certType model.CertificationType) (*model.Certification, error)

	// ListByWorker returns the worker's full certification history,
	// newest first.
	ListByWorker(ctx context.Context, workerID string) ([]*model.Certification, error)
}

// AttendanceRepository persists site attendance facts.
type AttendanceRepository interface {
	// ExistsForUTCDay reports whether an attendance row exists for the
	// worker and site within the UTC calendar day containing at.
	ExistsForUTCDay(ctx context.Context, workerID, jobSiteID string, at time.Time) (bool, error)

	// Create inserts an attendance row. Returns model.ErrDuplicateAttendance
	// when the (worker, site, UTC day) uniqueness constraint is violated.
	Create(ctx context.Context, attendance *model.SiteAttendance) error

	// ListBySiteAndUTCDay returns the attendances recorded for a site
	// within the UTC calendar day containing at, newest first.
	ListBySiteAndUTCDay(ctx context.Context, jobSiteID string, at time.Time) ([]*model.SiteAttendance, error)
}

// ContractorRepository persists contractors.
type ContractorRepository interface {
	// FindByID returns the contractor with the given ID, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.Contractor, error)

	// List returns all contractors, ordered by name.
	List(ctx context.Context) ([]*model.Contractor, error)

	// Create inserts a contractor.
	Create(ctx context.Context, contractor *model.Contractor) error

	// Update overwrites the mutable fields of a contractor.
	Update(ctx context.Context, contractor *model.Contractor) error

	// Delete removes a contractor.
	Delete(ctx context.Context, id string) error
}

// SWMSRepository persists SWMS document metadata.
type SWMSRepository interface {
	// Create inserts an SWMS document row.
	Create(ctx context.Context, doc *model.SWMSDocument) error

	// ListByJobSite returns the documents submitted for a site, newest first.
	ListByJobSite(ctx context.Context, jobSiteID string) ([]*model.SWMSDocument, error)
}

// AdminRepository persists administrator accounts.
type AdminRepository interface {
	// FindByEmail looks up an admin by email, case-insensitively.
	// Returns nil when no admin matches.
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)

	// FindByID returns the admin with the given ID, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.Admin, error)
}

// SessionRepository persists admin login sessions.
type SessionRepository interface {
	// Create inserts a session.
	Create(ctx context.Context, session *model.Session) error

	// FindByID returns the session with the given ID. Expired or missing
	// sessions return nil.
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteByID removes a session.
	DeleteByID(ctx context.Context, id string) error
}
