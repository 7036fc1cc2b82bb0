// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/buildsafe/siteward/internal/model"
)

// SessionCookieName holds the admin session ID. HttpOnly; set by the
// login handler and cleared on logout.
const SessionCookieName = "session_id"

type contextKey string

var adminIDContextKey = contextKey("admin_id")

// SessionFinder is the subset of repository.SessionRepository the
// session middleware needs.
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware reads the session cookie, validates the session
// and injects the authenticated admin ID into the request context.
// Unauthenticated requests get 401.
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if session == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminIDContextKey, session.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminIDFromContext returns the authenticated admin ID. Only valid on
// requests that passed the session middleware.
func AdminIDFromContext(ctx context.Context) (string, error) {
	adminID, ok := ctx.Value(adminIDContextKey).(string)
	if !ok || adminID == "" {
		return "", fmt.Errorf("admin ID not found in context")
	}
	return adminID, nil
}

// ContextWithAdminID injects an admin ID into a context. Used by tests
// and by context construction outside the middleware.
func ContextWithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDContextKey, adminID)
}
