// Package checkin implements the site check-in compliance gate.
//
// A check-in request passes through an ordered decision pipeline: request
// integrity (CSRF, honeypot), input validation, worker resolution, active-site
// retrieval, nearest-site matching, certification lookup, expiry policy,
// range enforcement, duplicate enforcement, and finally the attendance
// insert. Each step short-circuits on failure and every branch ends in a
// discriminated Result; nothing panics or returns a raw error across the
// package boundary.
package checkin

// Error map fields. Callers render the message against the matching form field.
const (
	FieldForm     = "form"
	FieldEmail    = "email"
	FieldLocation = "location"
)

// User-facing messages. The expired-card message is contractually exact:
// a downstream consumer matches it verbatim, so it must not be reworded.
const (
	MsgSecurityFailed = "Security validation failed. Please refresh the page and try again."
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgMissingCoords  = "Location is required. Please allow location access and try again."
	MsgUnknownWorker  = "We could not find your details. Please complete the site induction or contact your site supervisor."
	MsgNoActiveSites  = "There are no active job sites available for check-in right now."
	MsgMissingCard    = "Your white card information is missing. Please complete the site induction before checking in."
	MsgCardNotValid   = "Sorry, your white card is not validated. Please contact your site supervisor before entering the site."
	MsgExpiredCard    = "Sorry, your white card is out of date. Do not enter the site. Please fill out a new form to upload your new white card."
	MsgOutOfRange     = "You are not within range of any active job site. Please move closer to a job site and try again."
	MsgGenericFailure = "Something went wrong while checking you in. Please try again."
)

// Decision outcomes, used as metric labels and terminal states of the
// pipeline.
const (
	OutcomeSuccess          = "success"
	OutcomeSecurityRejected = "security_rejected"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeUnknownWorker    = "unknown_worker"
	OutcomeMissingCard      = "missing_card"
	OutcomeUnvalidatedCard  = "unvalidated_card"
	OutcomeExpiredCard      = "expired_card"
	OutcomeOutOfRange       = "out_of_range"
	OutcomeDuplicate        = "duplicate"
	OutcomeNoActiveSites    = "no_active_sites"
	OutcomeInfraError       = "infrastructure_error"
)

// Coordinates is a GPS fix supplied by the check-in form.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Request is a raw check-in submission.
type Request struct {
	// Email identifies the worker; it is normalized (trimmed, lower-cased)
	// before lookup.
	Email string

	// Coords is the worker's reported position. nil means the client did
	// not supply one, which is a validation error distinct from being out
	// of range.
	Coords *Coordinates

	// CSRFToken is the token echoed back in the request body.
	CSRFToken string

	// CookieToken is the server-issued token from the CSRF cookie.
	CookieToken string

	// Honeypot is the hidden "website" form field. Legitimate clients
	// always submit it empty.
	Honeypot string
}

// Result is the discriminated outcome of a check-in attempt: either a
// success message, or a field-keyed error map. Exactly one of the two is
// populated.
type Result struct {
	OK      bool
	Message string
	Errors  map[string]string

	// Outcome is the terminal pipeline state, for logging and metrics.
	Outcome string
}

// failure builds a single-field error Result.
func failure(outcome, field, message string) Result {
	return Result{
		Errors:  map[string]string{field: message},
		Outcome: outcome,
	}
}
