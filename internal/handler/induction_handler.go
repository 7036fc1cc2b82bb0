package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/buildsafe/siteward/internal/induction"
	"github.com/buildsafe/siteward/internal/middleware"
	"github.com/buildsafe/siteward/internal/model"
)

// InductionServiceInterface is the service surface the induction handler needs.
type InductionServiceInterface interface {
	Submit(ctx context.Context, req induction.Request) (*model.Worker, error)
}

// InductionHandler serves the public induction endpoint.
type InductionHandler struct {
	service InductionServiceInterface
}

// NewInductionHandler creates an InductionHandler.
func NewInductionHandler(service InductionServiceInterface) *InductionHandler {
	return &InductionHandler{service: service}
}

// inductionRequest is the induction form submission body. ExpiresAt is
// the white card expiry in YYYY-MM-DD. Website is the honeypot field.
type inductionRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	CardNumber string `json:"cardNumber"`
	ExpiresAt  string `json:"expiresAt"`
	CSRFToken  string `json:"csrfToken"`
	Website    string `json:"website"`
}

type inductionSuccessResponse struct {
	Success  bool   `json:"success"`
	WorkerID string `json:"workerId"`
	Message  string `json:"message"`
}

type inductionErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// Submit handles POST /api/induction. Like check-in, CSRF and honeypot
// are screened before any service call.
func (h *InductionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req inductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, inductionErrorResponse{
			Errors: map[string]string{"form": "Submission failed. Please try again."},
		})
		return
	}

	var cookieToken string
	if cookie, err := r.Cookie(middleware.CSRFCookieName); err == nil {
		cookieToken = cookie.Value
	}
	if req.Website != "" || req.CSRFToken == "" || cookieToken == "" || req.CSRFToken != cookieToken {
		writeJSON(w, http.StatusUnprocessableEntity, inductionErrorResponse{
			Errors: map[string]string{"form": "Security validation failed. Please refresh the page and try again."},
		})
		return
	}

	serviceReq := induction.Request{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		CardNumber: req.CardNumber,
	}
	if req.ExpiresAt != "" {
		expiry, err := time.Parse("2006-01-02", req.ExpiresAt)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, inductionErrorResponse{
				Errors: map[string]string{"expiresAt": "Please enter the expiry date as YYYY-MM-DD."},
			})
			return
		}
		serviceReq.ExpiresAt = &expiry
	}

	worker, err := h.service.Submit(r.Context(), serviceReq)
	if err != nil {
		var verr *induction.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, inductionErrorResponse{Errors: verr.Fields})
		case errors.Is(err, model.ErrDuplicateWorker):
			writeAPIErrorResponse(w, http.StatusConflict, model.NewDuplicateWorkerError())
		default:
			handleServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, inductionSuccessResponse{
		Success:  true,
		WorkerID: worker.ID,
		Message:  "Induction submitted. Your white card will be reviewed before your first check-in.",
	})
}
