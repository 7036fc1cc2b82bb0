package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresSessionRepo is the PostgreSQL session repository.
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo creates a PostgresSessionRepo.
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create inserts a session.
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, admin_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.AdminID, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// FindByID returns the session with the given ID.
// Expired or missing sessions return nil.
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, admin_id, expires_at, created_at
		 FROM sessions WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &session.AdminID, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// DeleteByID removes a session.
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
