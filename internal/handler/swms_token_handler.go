package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/buildsafe/siteward/internal/admin"
	"github.com/buildsafe/siteward/internal/model"
)

// SWMSTokenServiceInterface is the service surface the token handler needs.
type SWMSTokenServiceInterface interface {
	IssueSWMSToken(ctx context.Context, contractorID, jobSiteID string) (*admin.SWMSTokenResult, error)
}

// SWMSTokenHandler serves the admin SWMS upload link issuance endpoint.
type SWMSTokenHandler struct {
	service SWMSTokenServiceInterface
}

// NewSWMSTokenHandler creates a SWMSTokenHandler.
func NewSWMSTokenHandler(service SWMSTokenServiceInterface) *SWMSTokenHandler {
	return &SWMSTokenHandler{service: service}
}

type swmsTokenRequest struct {
	ContractorID string `json:"contractorId"`
	JobSiteID    string `json:"jobSiteId"`
}

type swmsTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issue handles POST /api/admin/swms-tokens.
func (h *SWMSTokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req swmsTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("failed to parse request body"))
		return
	}
	if req.ContractorID == "" || req.JobSiteID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("contractorId and jobSiteId are required"))
		return
	}

	result, err := h.service.IssueSWMSToken(r.Context(), req.ContractorID, req.JobSiteID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, swmsTokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}
