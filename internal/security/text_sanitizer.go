// Package security provides the application's security primitives:
// free-text sanitisation for worker-submitted form fields and an SSRF
// guard for outbound webhook delivery.
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService strips markup from worker-submitted text before it
// is stored or echoed back. Induction forms and SWMS submissions accept
// plain text only, so the policy allows no elements at all.
type TextSanitizerService interface {
	// Sanitize returns the input with all HTML removed and surrounding
	// whitespace trimmed. Empty input yields empty output, and the
	// function is idempotent.
	Sanitize(raw string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer builds a sanitizer with bluemonday's strict policy:
// every tag and attribute is removed, leaving only text content.
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicy entity-encodes the surviving text; decode it back so
	// names like "O'Brien & Sons" round-trip unchanged.
	cleaned := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.TrimSpace(cleaned)
}
