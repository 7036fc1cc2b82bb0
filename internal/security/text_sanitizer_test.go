package security

import "testing"

func TestSanitizeStripsMarkup(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "John Worker", "John Worker"},
		{"script tag", `<script>alert("x")</script>Jane`, "Jane"},
		{"nested tags", "<b><i>ACME</i> Scaffolding</b>", "ACME Scaffolding"},
		{"event attribute", `<img src=x onerror=alert(1)>Crane crew`, "Crane crew"},
		{"ampersand round-trip", "O'Brien & Sons", "O'Brien & Sons"},
		{"surrounding whitespace", "  high voltage work \n", "high voltage work"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	s := NewTextSanitizer()
	in := `<p>Working at <strong>heights</strong> & confined spaces</p>`

	once := s.Sanitize(in)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}
