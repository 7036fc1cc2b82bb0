package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buildsafe/siteward/internal/admin"
	"github.com/buildsafe/siteward/internal/model"
)

type mockJobSiteService struct {
	listFunc       func(ctx context.Context) ([]*model.JobSite, error)
	getFunc        func(ctx context.Context, id string) (*model.JobSite, error)
	createFunc     func(ctx context.Context, input admin.JobSiteInput) (*model.JobSite, error)
	updateFunc     func(ctx context.Context, id string, input admin.JobSiteInput) (*model.JobSite, error)
	deactivateFunc func(ctx context.Context, id string) (*model.JobSite, error)
}

func (m *mockJobSiteService) ListJobSites(ctx context.Context) ([]*model.JobSite, error) {
	return m.listFunc(ctx)
}

func (m *mockJobSiteService) GetJobSite(ctx context.Context, id string) (*model.JobSite, error) {
	return m.getFunc(ctx, id)
}

func (m *mockJobSiteService) CreateJobSite(ctx context.Context, input admin.JobSiteInput) (*model.JobSite, error) {
	return m.createFunc(ctx, input)
}

func (m *mockJobSiteService) UpdateJobSite(ctx context.Context, id string, input admin.JobSiteInput) (*model.JobSite, error) {
	return m.updateFunc(ctx, id, input)
}

func (m *mockJobSiteService) DeactivateJobSite(ctx context.Context, id string) (*model.JobSite, error) {
	return m.deactivateFunc(ctx, id)
}

// jobSiteTestRouter mounts the handler under the real route shape so
// chi.URLParam resolves.
func jobSiteTestRouter(h *JobSiteHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/job-sites", h.List)
	r.Post("/job-sites", h.Create)
	r.Get("/job-sites/{id}", h.Get)
	r.Put("/job-sites/{id}", h.Update)
	r.Delete("/job-sites/{id}", h.Deactivate)
	return r
}

func testJobSite() *model.JobSite {
	return &model.JobSite{
		ID:           "site-1",
		Name:         "Kwinana Substation",
		Latitude:     -32.2397,
		Longitude:    115.7702,
		RadiusMeters: 100,
		Active:       true,
		CreatedAt:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestJobSiteHandlerList(t *testing.T) {
	service := &mockJobSiteService{
		listFunc: func(ctx context.Context) ([]*model.JobSite, error) {
			return []*model.JobSite{testJobSite()}, nil
		},
	}
	router := jobSiteTestRouter(NewJobSiteHandler(service))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-sites", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []jobSiteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "Kwinana Substation" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestJobSiteHandlerGetNotFound(t *testing.T) {
	service := &mockJobSiteService{
		getFunc: func(ctx context.Context, id string) (*model.JobSite, error) {
			return nil, model.NewJobSiteNotFoundError(id)
		},
	}
	router := jobSiteTestRouter(NewJobSiteHandler(service))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-sites/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Code != model.ErrCodeJobSiteNotFound {
		t.Errorf("unexpected error code %q", resp.Code)
	}
}

func TestJobSiteHandlerCreate(t *testing.T) {
	var gotInput admin.JobSiteInput
	service := &mockJobSiteService{
		createFunc: func(ctx context.Context, input admin.JobSiteInput) (*model.JobSite, error) {
			gotInput = input
			return testJobSite(), nil
		},
	}
	router := jobSiteTestRouter(NewJobSiteHandler(service))

	body := `{"name":"Kwinana Substation","latitude":-32.2397,"longitude":115.7702,"radiusMeters":100,"active":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/job-sites", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotInput.Name != "Kwinana Substation" || gotInput.RadiusMeters != 100 {
		t.Errorf("unexpected input passed to service: %+v", gotInput)
	}
}

func TestJobSiteHandlerCreateValidationErrors(t *testing.T) {
	service := &mockJobSiteService{
		createFunc: func(ctx context.Context, input admin.JobSiteInput) (*model.JobSite, error) {
			return nil, &admin.ValidationError{Fields: map[string]string{
				"name": "Site name is required.",
			}}
		},
	}
	router := jobSiteTestRouter(NewJobSiteHandler(service))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/job-sites", strings.NewReader(`{}`)))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Errors["name"] != "Site name is required." {
		t.Errorf("unexpected errors: %v", resp.Errors)
	}
}

func TestJobSiteHandlerUpdatePassesURLParam(t *testing.T) {
	var gotID string
	service := &mockJobSiteService{
		updateFunc: func(ctx context.Context, id string, input admin.JobSiteInput) (*model.JobSite, error) {
			gotID = id
			return testJobSite(), nil
		},
	}
	router := jobSiteTestRouter(NewJobSiteHandler(service))

	body := `{"name":"Kwinana Substation","latitude":-32.2397,"longitude":115.7702,"radiusMeters":150,"active":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/job-sites/site-1", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "site-1" {
		t.Errorf("expected site-1, got %q", gotID)
	}
}

func TestJobSiteHandlerDeactivate(t *testing.T) {
	service := &mockJobSiteService{
		deactivateFunc: func(ctx context.Context, id string) (*model.JobSite, error) {
			site := testJobSite()
			site.Active = false
			return site, nil
		},
	}
	router := jobSiteTestRouter(NewJobSiteHandler(service))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/job-sites/site-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp jobSiteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Active {
		t.Error("expected site to be inactive")
	}
}
