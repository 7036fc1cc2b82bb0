package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresWorkerRepo is the PostgreSQL worker repository.
type PostgresWorkerRepo struct {
	db *sql.DB
}

// NewPostgresWorkerRepo creates a PostgresWorkerRepo.
func NewPostgresWorkerRepo(db *sql.DB) *PostgresWorkerRepo {
	return &PostgresWorkerRepo{db: db}
}

// FindByEmail looks up a worker by email, case-insensitively.
// Returns nil when no worker matches.
func (r *PostgresWorkerRepo) FindByEmail(ctx context.Context, email string) (*model.Worker, error) {
	worker := &model.Worker{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, created_at
		 FROM workers WHERE lower(email) = lower($1)`,
		email,
	).Scan(&worker.ID, &worker.Email, &worker.FirstName, &worker.LastName, &worker.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find worker by email: %w", err)
	}

	return worker, nil
}

// FindByID returns the worker with the given ID, or nil when absent.
func (r *PostgresWorkerRepo) FindByID(ctx context.Context, id string) (*model.Worker, error) {
	worker := &model.Worker{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, created_at
		 FROM workers WHERE id = $1`,
		id,
	).Scan(&worker.ID, &worker.Email, &worker.FirstName, &worker.LastName, &worker.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find worker by ID: %w", err)
	}

	return worker, nil
}

// Create inserts a worker. Returns model.ErrDuplicateWorker when the email
// is already taken.
func (r *PostgresWorkerRepo) Create(ctx context.Context, worker *model.Worker) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workers (id, email, first_name, last_name, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		worker.ID, worker.Email, worker.FirstName, worker.LastName, worker.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateWorker
		}
		return fmt.Errorf("failed to insert worker: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// compile-time interface check
var _ WorkerRepository = (*PostgresWorkerRepo)(nil)
