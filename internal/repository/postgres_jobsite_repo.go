package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresJobSiteRepo is the PostgreSQL job-site repository.
type PostgresJobSiteRepo struct {
	db *sql.DB
}

// NewPostgresJobSiteRepo creates a PostgresJobSiteRepo.
func NewPostgresJobSiteRepo(db *sql.DB) *PostgresJobSiteRepo {
	return &PostgresJobSiteRepo{db: db}
}

// FindByID returns the job site with the given ID, or nil when absent.
func (r *PostgresJobSiteRepo) FindByID(ctx context.Context, id string) (*model.JobSite, error) {
	site := &model.JobSite{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude, radius_meters, active, created_at, updated_at
		 FROM job_sites WHERE id = $1`,
		id,
	).Scan(&site.ID, &site.Name, &site.Latitude, &site.Longitude,
		&site.RadiusMeters, &site.Active, &site.CreatedAt, &site.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job site by ID: %w", err)
	}

	return site, nil
}

// ListActive returns all sites with active = true, ordered by name.
func (r *PostgresJobSiteRepo) ListActive(ctx context.Context) ([]*model.JobSite, error) {
	return r.list(ctx,
		`SELECT id, name, latitude, longitude, radius_meters, active, created_at, updated_at
		 FROM job_sites WHERE active = true ORDER BY name`)
}

// List returns all sites, ordered by name.
func (r *PostgresJobSiteRepo) List(ctx context.Context) ([]*model.JobSite, error) {
	return r.list(ctx,
		`SELECT id, name, latitude, longitude, radius_meters, active, created_at, updated_at
		 FROM job_sites ORDER BY name`)
}

func (r *PostgresJobSiteRepo) list(ctx context.Context, query string) ([]*model.JobSite, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list job sites: %w", err)
	}
	defer rows.Close()

	var sites []*model.JobSite
	for rows.Next() {
		site := &model.JobSite{}
		if err := rows.Scan(&site.ID, &site.Name, &site.Latitude, &site.Longitude,
			&site.RadiusMeters, &site.Active, &site.CreatedAt, &site.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job sites: %w", err)
	}

	return sites, nil
}

// Create inserts a job site.
func (r *PostgresJobSiteRepo) Create(ctx context.Context, site *model.JobSite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_sites (id, name, latitude, longitude, radius_meters, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		site.ID, site.Name, site.Latitude, site.Longitude,
		site.RadiusMeters, site.Active, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job site: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of a job site.
func (r *PostgresJobSiteRepo) Update(ctx context.Context, site *model.JobSite) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE job_sites
		 SET name = $2, latitude = $3, longitude = $4, radius_meters = $5, active = $6, updated_at = $7
		 WHERE id = $1`,
		site.ID, site.Name, site.Latitude, site.Longitude,
		site.RadiusMeters, site.Active, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job site: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job site not found: %s", site.ID)
	}

	return nil
}

// compile-time interface check
var _ JobSiteRepository = (*PostgresJobSiteRepo)(nil)
