package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresAttendanceRepo is the PostgreSQL attendance repository.
// The site_attendances table carries a unique index on
// (worker_id, job_site_id, attended_on) where attended_on is the UTC date
// of checked_in_at, so a concurrent double check-in loses at insert time
// rather than slipping past a read-then-write check.
type PostgresAttendanceRepo struct {
	db *sql.DB
}

// NewPostgresAttendanceRepo creates a PostgresAttendanceRepo.
func NewPostgresAttendanceRepo(db *sql.DB) *PostgresAttendanceRepo {
	return &PostgresAttendanceRepo{db: db}
}

// ExistsForUTCDay reports whether an attendance row exists for the worker
// and site within the UTC calendar day containing at.
func (r *PostgresAttendanceRepo) ExistsForUTCDay(ctx context.Context, workerID, jobSiteID string, at time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM site_attendances
		   WHERE worker_id = $1 AND job_site_id = $2 AND attended_on = ($3 AT TIME ZONE 'UTC')::date
		 )`,
		workerID, jobSiteID, at.UTC(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing attendance: %w", err)
	}

	return exists, nil
}

// Create inserts an attendance row. Returns model.ErrDuplicateAttendance
// when the (worker, site, UTC day) uniqueness constraint is violated.
func (r *PostgresAttendanceRepo) Create(ctx context.Context, attendance *model.SiteAttendance) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO site_attendances (id, worker_id, job_site_id, checked_in_at, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		attendance.ID, attendance.WorkerID, attendance.JobSiteID,
		attendance.CheckedInAt, attendance.Latitude, attendance.Longitude,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateAttendance
		}
		return fmt.Errorf("failed to insert attendance: %w", err)
	}

	return nil
}

// ListBySiteAndUTCDay returns the attendances recorded for a site within
// the UTC calendar day containing at, newest first.
func (r *PostgresAttendanceRepo) ListBySiteAndUTCDay(ctx context.Context, jobSiteID string, at time.Time) ([]*model.SiteAttendance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, worker_id, job_site_id, checked_in_at, latitude, longitude
		 FROM site_attendances
		 WHERE job_site_id = $1 AND attended_on = ($2 AT TIME ZONE 'UTC')::date
		 ORDER BY checked_in_at DESC`,
		jobSiteID, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var attendances []*model.SiteAttendance
	for rows.Next() {
		a := &model.SiteAttendance{}
		if err := rows.Scan(&a.ID, &a.WorkerID, &a.JobSiteID,
			&a.CheckedInAt, &a.Latitude, &a.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, nil
}

// compile-time interface check
var _ AttendanceRepository = (*PostgresAttendanceRepo)(nil)
