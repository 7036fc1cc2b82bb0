// Package model defines the domain model.
package model

import "fmt"

// APIError is the unified error format for the JSON API surface.
// It carries a cause category and a user-facing remediation action.
type APIError struct {
	Code     string // machine-readable error code
	Message  string // human-readable message
	Category string // one of: auth, validation, compliance, system
	Action   string // remediation guidance shown to the user
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Defined error codes.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeJobSiteNotFound    = "JOB_SITE_NOT_FOUND"
	ErrCodeContractorNotFound = "CONTRACTOR_NOT_FOUND"
	ErrCodeWorkerNotFound     = "WORKER_NOT_FOUND"
	ErrCodeDuplicateWorker    = "DUPLICATE_WORKER"
	ErrCodeSWMSTokenInvalid   = "SWMS_TOKEN_INVALID"
	ErrCodeSWMSTokenExpired   = "SWMS_TOKEN_EXPIRED"
)

// NewUnauthorizedError is returned when a request lacks a valid admin session.
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication is required.",
		Category: "auth",
		Action:   "Log in and try again.",
	}
}

// NewInvalidCredentialsError is returned when a login attempt fails.
// It deliberately does not distinguish an unknown email from a wrong password.
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Email or password is incorrect.",
		Category: "auth",
		Action:   "Check your credentials and try again.",
	}
}

// NewInvalidRequestError is returned when a request body fails validation.
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Correct the highlighted fields and resubmit.",
	}
}

// NewJobSiteNotFoundError is returned when a job site lookup misses.
func NewJobSiteNotFoundError(siteID string) *APIError {
	return &APIError{
		Code:     ErrCodeJobSiteNotFound,
		Message:  fmt.Sprintf("Job site not found: %s", siteID),
		Category: "validation",
		Action:   "Check the job site ID.",
	}
}

// NewContractorNotFoundError is returned when a contractor lookup misses.
func NewContractorNotFoundError(contractorID string) *APIError {
	return &APIError{
		Code:     ErrCodeContractorNotFound,
		Message:  fmt.Sprintf("Contractor not found: %s", contractorID),
		Category: "validation",
		Action:   "Check the contractor ID.",
	}
}

// NewWorkerNotFoundError is returned when a worker lookup misses.
func NewWorkerNotFoundError(workerID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkerNotFound,
		Message:  fmt.Sprintf("Worker not found: %s", workerID),
		Category: "validation",
		Action:   "Check the worker ID.",
	}
}

// NewDuplicateWorkerError is returned when an induction reuses an email.
func NewDuplicateWorkerError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateWorker,
		Message:  "A worker with this email has already completed induction.",
		Category: "validation",
		Action:   "Use the check-in form, or contact your supervisor to update your details.",
	}
}

// NewSWMSTokenInvalidError is returned when an SWMS access token fails verification.
func NewSWMSTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeSWMSTokenInvalid,
		Message:  "The SWMS access link is not valid.",
		Category: "auth",
		Action:   "Request a new upload link from the site administrator.",
	}
}

// NewSWMSTokenExpiredError is returned when an SWMS access token has expired.
func NewSWMSTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSWMSTokenExpired,
		Message:  "The SWMS access link has expired.",
		Category: "auth",
		Action:   "Request a new upload link from the site administrator.",
	}
}
