package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/buildsafe/siteward/internal/admin"
	"github.com/buildsafe/siteward/internal/model"
)

// AttendanceServiceInterface is the service surface the attendance handler needs.
type AttendanceServiceInterface interface {
	ListAttendances(ctx context.Context, jobSiteID string, day time.Time) ([]admin.AttendanceEntry, error)
}

// AttendanceHandler serves the admin attendance review endpoint.
type AttendanceHandler struct {
	service AttendanceServiceInterface

	// now is the clock, overridable in tests.
	now func() time.Time
}

// NewAttendanceHandler creates an AttendanceHandler.
func NewAttendanceHandler(service AttendanceServiceInterface) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		now:     time.Now,
	}
}

type attendanceResponse struct {
	ID          string    `json:"id"`
	WorkerID    string    `json:"workerId"`
	WorkerName  string    `json:"workerName"`
	WorkerEmail string    `json:"workerEmail"`
	JobSiteID   string    `json:"jobSiteId"`
	CheckedInAt time.Time `json:"checkedInAt"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// List handles GET /api/admin/attendances?siteId=...&date=YYYY-MM-DD.
// The date is interpreted as a UTC calendar day and defaults to today.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	siteID := r.URL.Query().Get("siteId")
	if siteID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("siteId query parameter is required"))
		return
	}

	day := h.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("date must be formatted YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	entries, err := h.service.ListAttendances(r.Context(), siteID, day)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := make([]attendanceResponse, 0, len(entries))
	for _, entry := range entries {
		resp := attendanceResponse{
			ID:          entry.Attendance.ID,
			WorkerID:    entry.Attendance.WorkerID,
			JobSiteID:   entry.Attendance.JobSiteID,
			CheckedInAt: entry.Attendance.CheckedInAt,
			Latitude:    entry.Attendance.Latitude,
			Longitude:   entry.Attendance.Longitude,
		}
		if entry.Worker != nil {
			resp.WorkerName = entry.Worker.FullName()
			resp.WorkerEmail = entry.Worker.Email
		}
		body = append(body, resp)
	}
	writeJSON(w, http.StatusOK, body)
}
