package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresAdminRepo is the PostgreSQL administrator repository.
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo creates a PostgresAdminRepo.
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

// FindByEmail looks up an admin by email, case-insensitively.
// Returns nil when no admin matches.
func (r *PostgresAdminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	admin := &model.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM admins WHERE lower(email) = lower($1)`,
		email,
	).Scan(&admin.ID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}

	return admin, nil
}

// FindByID returns the admin with the given ID, or nil when absent.
func (r *PostgresAdminRepo) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	admin := &model.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM admins WHERE id = $1`,
		id,
	).Scan(&admin.ID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by ID: %w", err)
	}

	return admin, nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
