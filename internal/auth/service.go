// Package auth provides admin password login and session management.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/buildsafe/siteward/internal/model"
	"github.com/buildsafe/siteward/internal/repository"
)

// ErrInvalidCredentials is returned for a failed login. Unknown email and
// wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// ServiceConfig holds the auth service settings.
type ServiceConfig struct {
	SessionMaxAge int // session lifetime in seconds
}

// Service implements admin authentication.
type Service struct {
	adminRepo   repository.AdminRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService creates an auth Service.
func NewService(
	adminRepo repository.AdminRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		adminRepo:   adminRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Login verifies the credentials and issues a session. The bcrypt
// comparison runs even when the email is unknown so response timing does
// not leak account existence.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	hash := dummyHash
	if admin != nil {
		hash = admin.PasswordHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil || admin == nil {
		slog.Warn("login failed", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, admin.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("admin logged in", slog.String("admin_id", admin.ID))
	return session, nil
}

// Logout destroys the session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("admin logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentAdmin resolves the session to its admin account.
func (s *Service) GetCurrentAdmin(ctx context.Context, sessionID string) (*model.Admin, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	admin, err := s.adminRepo.FindByID(ctx, session.AdminID)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, fmt.Errorf("admin not found")
	}

	return admin, nil
}

// HashPassword produces a bcrypt hash for account provisioning.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *Service) createSession(ctx context.Context, adminID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		AdminID:   adminID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID returns a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// dummyHash is compared against when the email is unknown. It is a valid
// bcrypt hash of a random string nobody knows.
var dummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("siteward-dummy-credential"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()
