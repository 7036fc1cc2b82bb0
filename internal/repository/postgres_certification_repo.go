package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresCertificationRepo is the PostgreSQL certification repository.
// The certifications table is append-only: rows are inserted, never
// updated or deleted, and ordering by created_at decides the current row.
type PostgresCertificationRepo struct {
	db *sql.DB
}

// NewPostgresCertificationRepo creates a PostgresCertificationRepo.
func NewPostgresCertificationRepo(db *sql.DB) *PostgresCertificationRepo {
	return &PostgresCertificationRepo{db: db}
}

// Create appends a certification row.
func (r *PostgresCertificationRepo) Create(ctx context.Context, cert *model.Certification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO certifications (id, worker_id, type, status, card_number, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cert.ID, cert.WorkerID, cert.Type, cert.Status, cert.CardNumber, cert.ExpiresAt, cert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert certification: %w", err)
	}

	return nil
}

// FindLatestByWorkerAndType returns the most-recently-created certification
// of the given type for the worker, or nil when none exists.
func (r *PostgresCertificationRepo) FindLatestByWorkerAndType(ctx context.Context, workerID string, certType model.CertificationType) (*model.Certification, error) {
	cert := &model.Certification{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, worker_id, type, status, card_number, expires_at, created_at
		 FROM certifications
		 WHERE worker_id = $1 AND type = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		workerID, certType,
	).Scan(&cert.ID, &cert.WorkerID, &cert.Type, &cert.Status,
		&cert.CardNumber, &cert.ExpiresAt, &cert.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest certification: %w", err)
	}

	return cert, nil
}

// ListByWorker returns the worker's full certification history, newest first.
func (r *PostgresCertificationRepo) ListByWorker(ctx context.Context, workerID string) ([]*model.Certification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, worker_id, type, status, card_number, expires_at, created_at
		 FROM certifications
		 WHERE worker_id = $1
		 ORDER BY created_at DESC`,
		workerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	defer rows.Close()

	var certs []*model.Certification
	for rows.Next() {
		cert := &model.Certification{}
		if err := rows.Scan(&cert.ID, &cert.WorkerID, &cert.Type, &cert.Status,
			&cert.CardNumber, &cert.ExpiresAt, &cert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate certifications: %w", err)
	}

	return certs, nil
}

// compile-time interface check
var _ CertificationRepository = (*PostgresCertificationRepo)(nil)
