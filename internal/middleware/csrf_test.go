package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFMiddlewareSafeMethodSkipsValidation(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	// a token cookie must have been issued
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName && c.Value != "" {
			found = true
			if c.HttpOnly {
				t.Error("CSRF cookie must be readable by the frontend")
			}
		}
	}
	if !found {
		t.Error("expected a CSRF cookie on safe-method responses")
	}
}

func TestCSRFMiddlewareRejectsMissingCookie(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/job-sites", nil)
	req.Header.Set("X-CSRF-Token", "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCSRFMiddlewareRejectsMissingHeader(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/job-sites", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCSRFMiddlewareRejectsMismatch(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/job-sites", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	req.Header.Set("X-CSRF-Token", "different")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCSRFMiddlewareAcceptsMatchingTokens(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/job-sites", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	req.Header.Set("X-CSRF-Token", "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCSRFTokenHandlerIssuesToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{CookieSecure: true})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	token := body["token"]
	if len(token) != 64 { // 32 random bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(token))
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected a CSRF cookie to be set")
	}
	if cookie.Value != token {
		t.Error("cookie and body token must match")
	}
	if !cookie.Secure {
		t.Error("cookie must honor CookieSecure")
	}
}

func TestCSRFTokenHandlerReusesExistingToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["token"] != "existing-token" {
		t.Errorf("token = %q, want the existing cookie token", body["token"])
	}
}
