package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/buildsafe/siteward/internal/checkin"
	"github.com/buildsafe/siteward/internal/middleware"
)

// CheckInServiceInterface is the service surface the check-in handler needs.
type CheckInServiceInterface interface {
	CheckIn(ctx context.Context, req checkin.Request) checkin.Result
}

// CheckInHandler serves the public check-in endpoint.
type CheckInHandler struct {
	service CheckInServiceInterface
}

// NewCheckInHandler creates a CheckInHandler.
func NewCheckInHandler(service CheckInServiceInterface) *CheckInHandler {
	return &CheckInHandler{service: service}
}

// checkInRequest is the check-in form submission body. Website is the
// honeypot field: hidden on the real form, so any value marks a bot.
type checkInRequest struct {
	Email  string `json:"email"`
	Coords *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"coords"`
	CSRFToken string `json:"csrfToken"`
	Website   string `json:"website"`
}

// checkInSuccessResponse is the body for an accepted check-in.
type checkInSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// checkInErrorResponse is the body for a denied or invalid check-in.
type checkInErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// CheckIn handles POST /api/checkin.
//
// The CSRF cookie is read here and passed to the service together with
// the body token so a mismatch surfaces as the same form-level error the
// frontend already renders, rather than a middleware 403.
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, checkInErrorResponse{
			Errors: map[string]string{checkin.FieldForm: checkin.MsgGenericFailure},
		})
		return
	}

	var cookieToken string
	if cookie, err := r.Cookie(middleware.CSRFCookieName); err == nil {
		cookieToken = cookie.Value
	}

	serviceReq := checkin.Request{
		Email:       req.Email,
		CSRFToken:   req.CSRFToken,
		CookieToken: cookieToken,
		Honeypot:    req.Website,
	}
	if req.Coords != nil {
		serviceReq.Coords = &checkin.Coordinates{
			Lat: req.Coords.Lat,
			Lng: req.Coords.Lng,
		}
	}

	result := h.service.CheckIn(r.Context(), serviceReq)

	if !result.OK {
		writeJSON(w, http.StatusUnprocessableEntity, checkInErrorResponse{Errors: result.Errors})
		return
	}

	writeJSON(w, http.StatusOK, checkInSuccessResponse{
		Success: true,
		Message: result.Message,
	})
}
