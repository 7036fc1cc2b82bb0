package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresContractorRepo is the PostgreSQL contractor repository.
type PostgresContractorRepo struct {
	db *sql.DB
}

// NewPostgresContractorRepo creates a PostgresContractorRepo.
func NewPostgresContractorRepo(db *sql.DB) *PostgresContractorRepo {
	return &PostgresContractorRepo{db: db}
}

// FindByID returns the contractor with the given ID, or nil when absent.
func (r *PostgresContractorRepo) FindByID(ctx context.Context, id string) (*model.Contractor, error) {
	c := &model.Contractor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, contact_name, contact_email, created_at, updated_at
		 FROM contractors WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.ContactName, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contractor by ID: %w", err)
	}

	return c, nil
}

// List returns all contractors, ordered by name.
func (r *PostgresContractorRepo) List(ctx context.Context) ([]*model.Contractor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, contact_name, contact_email, created_at, updated_at
		 FROM contractors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}
	defer rows.Close()

	var contractors []*model.Contractor
	for rows.Next() {
		c := &model.Contractor{}
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactName, &c.ContactEmail,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		contractors = append(contractors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contractors: %w", err)
	}

	return contractors, nil
}

// Create inserts a contractor.
func (r *PostgresContractorRepo) Create(ctx context.Context, contractor *model.Contractor) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contractors (id, name, contact_name, contact_email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		contractor.ID, contractor.Name, contractor.ContactName, contractor.ContactEmail,
		contractor.CreatedAt, contractor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contractor: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of a contractor.
func (r *PostgresContractorRepo) Update(ctx context.Context, contractor *model.Contractor) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contractors
		 SET name = $2, contact_name = $3, contact_email = $4, updated_at = $5
		 WHERE id = $1`,
		contractor.ID, contractor.Name, contractor.ContactName,
		contractor.ContactEmail, contractor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update contractor: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("contractor not found: %s", contractor.ID)
	}

	return nil
}

// Delete removes a contractor.
func (r *PostgresContractorRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM contractors WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete contractor: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("contractor not found: %s", id)
	}

	return nil
}

// compile-time interface check
var _ ContractorRepository = (*PostgresContractorRepo)(nil)
