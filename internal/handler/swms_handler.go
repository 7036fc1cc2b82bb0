package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buildsafe/siteward/internal/model"
	"github.com/buildsafe/siteward/internal/swms"
)

// SWMSServiceInterface is the service surface the SWMS portal handler needs.
type SWMSServiceInterface interface {
	ValidateToken(ctx context.Context, token string) (*model.Contractor, *model.JobSite, error)
	Submit(ctx context.Context, req swms.SubmitRequest) (*model.SWMSDocument, error)
	ListByJobSite(ctx context.Context, jobSiteID string) ([]*model.SWMSDocument, error)
}

// SWMSHandler serves the token-gated contractor document portal.
type SWMSHandler struct {
	service       SWMSServiceInterface
	maxUploadSize int64
}

// NewSWMSHandler creates an SWMSHandler.
func NewSWMSHandler(service SWMSServiceInterface, maxUploadSize int64) *SWMSHandler {
	return &SWMSHandler{service: service, maxUploadSize: maxUploadSize}
}

type swmsValidateResponse struct {
	ContractorName string `json:"contractorName"`
	JobSiteName    string `json:"jobSiteName"`
}

type swmsSubmitResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId"`
}

type swmsErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// Validate handles GET /api/swms/validate?token=... It lets the portal
// page show who the link is for before anything is uploaded.
func (h *SWMSHandler) Validate(w http.ResponseWriter, r *http.Request) {
	contractor, site, err := h.service.ValidateToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.writeTokenError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, swmsValidateResponse{
		ContractorName: contractor.Name,
		JobSiteName:    site.Name,
	})
}

// Submit handles POST /api/swms/documents as a multipart form with
// fields token, title, description and file.
func (h *SWMSHandler) Submit(w http.ResponseWriter, r *http.Request) {
	// cap the whole request; the service enforces the per-file limit
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+64*1024)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("expected a multipart form upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, swmsErrorResponse{
			Errors: map[string]string{"file": "A document file is required."},
		})
		return
	}
	defer file.Close()

	doc, err := h.service.Submit(r.Context(), swms.SubmitRequest{
		Token:       r.FormValue("token"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Content:     file,
	})
	if err != nil {
		var verr *swms.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, swmsErrorResponse{Errors: verr.Fields})
			return
		}
		h.writeTokenError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, swmsSubmitResponse{
		Success:    true,
		DocumentID: doc.ID,
	})
}

type swmsDocumentResponse struct {
	ID           string    `json:"id"`
	ContractorID string    `json:"contractorId"`
	JobSiteID    string    `json:"jobSiteId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	FileName     string    `json:"fileName"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// ListBySite handles GET /api/admin/job-sites/{id}/swms.
func (h *SWMSHandler) ListBySite(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListByJobSite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]swmsDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		body = append(body, swmsDocumentResponse{
			ID:           doc.ID,
			ContractorID: doc.ContractorID,
			JobSiteID:    doc.JobSiteID,
			Title:        doc.Title,
			Description:  doc.Description,
			FileName:     doc.FileName,
			ContentType:  doc.ContentType,
			SizeBytes:    doc.SizeBytes,
			SubmittedAt:  doc.SubmittedAt,
		})
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *SWMSHandler) writeTokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, swms.ErrTokenExpired):
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewSWMSTokenExpiredError())
	case errors.Is(err, swms.ErrTokenInvalid),
		errors.Is(err, swms.ErrContractorNotFound),
		errors.Is(err, swms.ErrJobSiteNotFound):
		// a token for a deleted contractor or site is indistinguishable
		// from an invalid one as far as the portal user is concerned
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewSWMSTokenInvalidError())
	default:
		handleServiceError(w, err)
	}
}
