package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buildsafe/siteward/internal/model"
)

// PostgresSWMSRepo is the PostgreSQL SWMS document repository.
type PostgresSWMSRepo struct {
	db *sql.DB
}

// NewPostgresSWMSRepo creates a PostgresSWMSRepo.
func NewPostgresSWMSRepo(db *sql.DB) *PostgresSWMSRepo {
	return &PostgresSWMSRepo{db: db}
}

// Create inserts an SWMS document row.
func (r *PostgresSWMSRepo) Create(ctx context.Context, doc *model.SWMSDocument) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO swms_documents
		   (id, contractor_id, job_site_id, title, description, storage_key, file_name, content_type, size_bytes, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.ContractorID, doc.JobSiteID, doc.Title, doc.Description,
		doc.StorageKey, doc.FileName, doc.ContentType, doc.SizeBytes, doc.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert SWMS document: %w", err)
	}

	return nil
}

// ListByJobSite returns the documents submitted for a site, newest first.
func (r *PostgresSWMSRepo) ListByJobSite(ctx context.Context, jobSiteID string) ([]*model.SWMSDocument, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, contractor_id, job_site_id, title, description, storage_key, file_name, content_type, size_bytes, submitted_at
		 FROM swms_documents
		 WHERE job_site_id = $1
		 ORDER BY submitted_at DESC`,
		jobSiteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list SWMS documents: %w", err)
	}
	defer rows.Close()

	var docs []*model.SWMSDocument
	for rows.Next() {
		doc := &model.SWMSDocument{}
		if err := rows.Scan(&doc.ID, &doc.ContractorID, &doc.JobSiteID, &doc.Title,
			&doc.Description, &doc.StorageKey, &doc.FileName, &doc.ContentType,
			&doc.SizeBytes, &doc.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan SWMS document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate SWMS documents: %w", err)
	}

	return docs, nil
}

// compile-time interface check
var _ SWMSRepository = (*PostgresSWMSRepo)(nil)
