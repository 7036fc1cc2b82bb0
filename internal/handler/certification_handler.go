package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buildsafe/siteward/internal/admin"
	"github.com/buildsafe/siteward/internal/model"
)

// CertificationServiceInterface is the service surface the certification
// handler needs.
type CertificationServiceInterface interface {
	ReviewCertification(ctx context.Context, input admin.CertificationReviewInput) (*model.Certification, error)
	ListWorkerCertifications(ctx context.Context, workerID string) ([]*model.Certification, error)
}

// CertificationHandler serves the admin white card review endpoints.
type CertificationHandler struct {
	service CertificationServiceInterface
}

// NewCertificationHandler creates a CertificationHandler.
func NewCertificationHandler(service CertificationServiceInterface) *CertificationHandler {
	return &CertificationHandler{service: service}
}

type certificationReviewRequest struct {
	WorkerID   string `json:"workerId"`
	Status     string `json:"status"`
	CardNumber string `json:"cardNumber"`
	ExpiresAt  string `json:"expiresAt"`
}

type certificationResponse struct {
	ID         string     `json:"id"`
	WorkerID   string     `json:"workerId"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	CardNumber string     `json:"cardNumber"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toCertificationResponse(cert *model.Certification) certificationResponse {
	return certificationResponse{
		ID:         cert.ID,
		WorkerID:   cert.WorkerID,
		Type:       string(cert.Type),
		Status:     string(cert.Status),
		CardNumber: cert.CardNumber,
		ExpiresAt:  cert.ExpiresAt,
		CreatedAt:  cert.CreatedAt,
	}
}

// Review handles POST /api/admin/certifications. A review decision is
// appended as a new certification row.
func (h *CertificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req certificationReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	input := admin.CertificationReviewInput{
		WorkerID:   req.WorkerID,
		Status:     model.CertificationStatus(req.Status),
		CardNumber: req.CardNumber,
	}
	if req.ExpiresAt != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpiresAt)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": map[string]string{
					"expiresAt": "Expiry date must be formatted YYYY-MM-DD.",
				},
			})
			return
		}
		input.ExpiresAt = &parsed
	}

	cert, err := h.service.ReviewCertification(r.Context(), input)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCertificationResponse(cert))
}

// ListByWorker handles GET /api/admin/workers/{id}/certifications.
func (h *CertificationHandler) ListByWorker(w http.ResponseWriter, r *http.Request) {
	certs, err := h.service.ListWorkerCertifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]certificationResponse, 0, len(certs))
	for _, cert := range certs {
		body = append(body, toCertificationResponse(cert))
	}
	writeJSON(w, http.StatusOK, body)
}
