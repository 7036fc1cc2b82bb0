package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buildsafe/siteward/internal/admin"
	"github.com/buildsafe/siteward/internal/model"
)

// JobSiteServiceInterface is the service surface the job site handler needs.
type JobSiteServiceInterface interface {
	ListJobSites(ctx context.Context) ([]*model.JobSite, error)
	GetJobSite(ctx context.Context, id string) (*model.JobSite, error)
	CreateJobSite(ctx context.Context, input admin.JobSiteInput) (*model.JobSite, error)
	UpdateJobSite(ctx context.Context, id string, input admin.JobSiteInput) (*model.JobSite, error)
	DeactivateJobSite(ctx context.Context, id string) (*model.JobSite, error)
}

// JobSiteHandler serves the admin job site CRUD endpoints.
type JobSiteHandler struct {
	service JobSiteServiceInterface
}

// NewJobSiteHandler creates a JobSiteHandler.
func NewJobSiteHandler(service JobSiteServiceInterface) *JobSiteHandler {
	return &JobSiteHandler{service: service}
}

type jobSiteRequest struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radiusMeters"`
	Active       bool    `json:"active"`
}

type jobSiteResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters float64   `json:"radiusMeters"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toJobSiteResponse(site *model.JobSite) jobSiteResponse {
	return jobSiteResponse{
		ID:           site.ID,
		Name:         site.Name,
		Latitude:     site.Latitude,
		Longitude:    site.Longitude,
		RadiusMeters: site.RadiusMeters,
		Active:       site.Active,
		CreatedAt:    site.CreatedAt,
		UpdatedAt:    site.UpdatedAt,
	}
}

// List handles GET /api/admin/job-sites.
func (h *JobSiteHandler) List(w http.ResponseWriter, r *http.Request) {
	sites, err := h.service.ListJobSites(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]jobSiteResponse, 0, len(sites))
	for _, site := range sites {
		body = append(body, toJobSiteResponse(site))
	}
	writeJSON(w, http.StatusOK, body)
}

// Get handles GET /api/admin/job-sites/{id}.
func (h *JobSiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	site, err := h.service.GetJobSite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobSiteResponse(site))
}

// Create handles POST /api/admin/job-sites.
func (h *JobSiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req jobSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	site, err := h.service.CreateJobSite(r.Context(), admin.JobSiteInput{
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		Active:       req.Active,
	})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobSiteResponse(site))
}

// Update handles PUT /api/admin/job-sites/{id}.
func (h *JobSiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req jobSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	site, err := h.service.UpdateJobSite(r.Context(), chi.URLParam(r, "id"), admin.JobSiteInput{
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		Active:       req.Active,
	})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobSiteResponse(site))
}

// Deactivate handles DELETE /api/admin/job-sites/{id}. The site is
// marked inactive rather than removed.
func (h *JobSiteHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	site, err := h.service.DeactivateJobSite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobSiteResponse(site))
}

// writeAdminError maps admin validation errors to a 422 field map and
// defers everything else to handleServiceError.
func writeAdminError(w http.ResponseWriter, err error) {
	var validationErr *admin.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": validationErr.Fields,
		})
		return
	}
	handleServiceError(w, err)
}
