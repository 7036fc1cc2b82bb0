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

// ContractorServiceInterface is the service surface the contractor handler needs.
type ContractorServiceInterface interface {
	ListContractors(ctx context.Context) ([]*model.Contractor, error)
	GetContractor(ctx context.Context, id string) (*model.Contractor, error)
	CreateContractor(ctx context.Context, input admin.ContractorInput) (*model.Contractor, error)
	UpdateContractor(ctx context.Context, id string, input admin.ContractorInput) (*model.Contractor, error)
	DeleteContractor(ctx context.Context, id string) error
}

// ContractorHandler serves the admin contractor CRUD endpoints.
type ContractorHandler struct {
	service ContractorServiceInterface
}

// NewContractorHandler creates a ContractorHandler.
func NewContractorHandler(service ContractorServiceInterface) *ContractorHandler {
	return &ContractorHandler{service: service}
}

type contractorRequest struct {
	Name         string `json:"name"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
}

type contractorResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contactName"`
	ContactEmail string    `json:"contactEmail"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toContractorResponse(contractor *model.Contractor) contractorResponse {
	return contractorResponse{
		ID:           contractor.ID,
		Name:         contractor.Name,
		ContactName:  contractor.ContactName,
		ContactEmail: contractor.ContactEmail,
		CreatedAt:    contractor.CreatedAt,
		UpdatedAt:    contractor.UpdatedAt,
	}
}

// List handles GET /api/admin/contractors.
func (h *ContractorHandler) List(w http.ResponseWriter, r *http.Request) {
	contractors, err := h.service.ListContractors(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]contractorResponse, 0, len(contractors))
	for _, contractor := range contractors {
		body = append(body, toContractorResponse(contractor))
	}
	writeJSON(w, http.StatusOK, body)
}

// Get handles GET /api/admin/contractors/{id}.
func (h *ContractorHandler) Get(w http.ResponseWriter, r *http.Request) {
	contractor, err := h.service.GetContractor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractorResponse(contractor))
}

// Create handles POST /api/admin/contractors.
func (h *ContractorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req contractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	contractor, err := h.service.CreateContractor(r.Context(), admin.ContractorInput{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractorResponse(contractor))
}

// Update handles PUT /api/admin/contractors/{id}.
func (h *ContractorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req contractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	contractor, err := h.service.UpdateContractor(r.Context(), chi.URLParam(r, "id"), admin.ContractorInput{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractorResponse(contractor))
}

// Delete handles DELETE /api/admin/contractors/{id}.
func (h *ContractorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteContractor(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
