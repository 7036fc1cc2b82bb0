package swms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildsafe/siteward/internal/model"
	"github.com/buildsafe/siteward/internal/repository"
	"github.com/buildsafe/siteward/internal/security"
	"github.com/buildsafe/siteward/internal/storage"
)

var (
	// ErrValidation carries field-scoped messages for a rejected submission.
	ErrValidation = errors.New("invalid SWMS submission")
	// ErrContractorNotFound is returned when the token's contractor no
	// longer exists.
	ErrContractorNotFound = errors.New("contractor not found")
	// ErrJobSiteNotFound is returned when the token's job site no longer
	// exists.
	ErrJobSiteNotFound = errors.New("job site not found")
)

// ValidationError lists per-field problems with a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "invalid SWMS submission" }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// allowedContentTypes are the document formats accepted by the portal.
var allowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// SubmitRequest is one document upload through the portal.
type SubmitRequest struct {
	Token       string
	Title       string
	Description string
	FileName    string
	ContentType string
	SizeBytes   int64
	Content     io.Reader
}

// Service handles SWMS document intake.
type Service struct {
	tokens      *TokenService
	contractors repository.ContractorRepository
	sites       repository.JobSiteRepository
	documents   repository.SWMSRepository
	blobs       storage.BlobStore
	sanitizer   security.TextSanitizerService
	maxSize     int64
	logger      *slog.Logger
}

// NewService creates an SWMS Service.
func NewService(
	tokens *TokenService,
	contractors repository.ContractorRepository,
	sites repository.JobSiteRepository,
	documents repository.SWMSRepository,
	blobs storage.BlobStore,
	sanitizer security.TextSanitizerService,
	maxSize int64,
	logger *slog.Logger,
) *Service {
	return &Service{
		tokens:      tokens,
		contractors: contractors,
		sites:       sites,
		documents:   documents,
		blobs:       blobs,
		sanitizer:   sanitizer,
		maxSize:     maxSize,
		logger:      logger,
	}
}

// ValidateToken checks a portal token and returns the contractor and job
// site it grants access to. Used by the portal's landing endpoint so the
// form can show the contractor and site names before any upload.
func (s *Service) ValidateToken(ctx context.Context, token string) (*model.Contractor, *model.JobSite, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, nil, err
	}

	contractor, err := s.contractors.FindByID(ctx, claims.ContractorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find contractor: %w", err)
	}
	if contractor == nil {
		return nil, nil, ErrContractorNotFound
	}

	site, err := s.sites.FindByID(ctx, claims.JobSiteID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find job site: %w", err)
	}
	if site == nil {
		return nil, nil, ErrJobSiteNotFound
	}

	return contractor, site, nil
}

// Submit validates the token and the upload, stores the blob and inserts
// the metadata row. Token failures surface as ErrTokenInvalid or
// ErrTokenExpired; input problems as *ValidationError.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*model.SWMSDocument, error) {
	contractor, site, err := s.ValidateToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}

	title := s.sanitizer.Sanitize(req.Title)
	if title == "" {
		fields["title"] = "Title is required."
	}
	description := s.sanitizer.Sanitize(req.Description)

	ext, knownType := allowedContentTypes[strings.ToLower(req.ContentType)]
	if !knownType {
		fields["file"] = "Only PDF, JPEG and PNG documents are accepted."
	}
	if req.SizeBytes <= 0 {
		fields["file"] = "A document file is required."
	} else if req.SizeBytes > s.maxSize {
		fields["file"] = fmt.Sprintf("The document must be smaller than %d MB.", s.maxSize/(1024*1024))
	}
	if req.Content == nil {
		fields["file"] = "A document file is required."
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	docID := uuid.NewString()
	key := path.Join("swms", contractor.ID, docID+ext)

	// limit the copy as well; the declared size is client-supplied
	written, err := s.blobs.Put(ctx, key, io.LimitReader(req.Content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	if written > s.maxSize {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to remove oversized blob",
				slog.String("key", key),
				slog.String("error", derr.Error()),
			)
		}
		return nil, &ValidationError{Fields: map[string]string{
			"file": fmt.Sprintf("The document must be smaller than %d MB.", s.maxSize/(1024*1024)),
		}}
	}

	doc := &model.SWMSDocument{
		ID:           docID,
		ContractorID: contractor.ID,
		JobSiteID:    site.ID,
		Title:        title,
		Description:  description,
		StorageKey:   key,
		FileName:     sanitizeFileName(req.FileName),
		ContentType:  strings.ToLower(req.ContentType),
		SizeBytes:    written,
		SubmittedAt:  time.Now().UTC(),
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		// the metadata row failed; do not leave an orphan blob behind
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to remove orphan blob",
				slog.String("key", key),
				slog.String("error", derr.Error()),
			)
		}
		return nil, fmt.Errorf("failed to save document metadata: %w", err)
	}

	s.logger.Info("SWMS document submitted",
		slog.String("document_id", doc.ID),
		slog.String("contractor_id", contractor.ID),
		slog.String("job_site_id", site.ID),
		slog.Int64("size_bytes", written),
	)

	return doc, nil
}

// ListByJobSite returns a site's submitted documents, newest first.
func (s *Service) ListByJobSite(ctx context.Context, jobSiteID string) ([]*model.SWMSDocument, error) {
	docs, err := s.documents.ListByJobSite(ctx, jobSiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// sanitizeFileName keeps only the base name of the client-supplied file
// name.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
