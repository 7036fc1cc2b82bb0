package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/buildsafe/siteward/internal/model"
)

type mockAdminRepo struct {
	findByEmailFn func(ctx context.Context, email string) (*model.Admin, error)
	findByIDFn    func(ctx context.Context, id string) (*model.Admin, error)
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return m.findByEmailFn(ctx, email)
}
func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	return m.findByIDFn(ctx, id)
}

type mockSessionRepo struct {
	createFn   func(ctx context.Context, session *model.Session) error
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
	deleteFn   func(ctx context.Context, id string) error
	created    []*model.Session
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	m.created = append(m.created, session)
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func newTestService(t *testing.T, adminRepo *mockAdminRepo, sessionRepo *mockSessionRepo) *Service {
	t.Helper()
	return NewService(adminRepo, sessionRepo, ServiceConfig{SessionMaxAge: 3600})
}

func TestLoginSuccess(t *testing.T) {
	hash := mustHash(t, "correct horse")
	adminRepo := &mockAdminRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.Admin, error) {
			if email != "admin@example.com" {
				t.Errorf("lookup email = %q, want normalized", email)
			}
			return &model.Admin{ID: "admin-1", Email: email, PasswordHash: hash}, nil
		},
	}
	sessionRepo := &mockSessionRepo{}
	svc := newTestService(t, adminRepo, sessionRepo)

	session, err := svc.Login(context.Background(), "  Admin@Example.COM ", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.AdminID != "admin-1" {
		t.Errorf("session admin = %q, want admin-1", session.AdminID)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64", len(session.ID))
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("session must expire in the future")
	}
	if len(sessionRepo.created) != 1 {
		t.Errorf("sessions persisted = %d, want 1", len(sessionRepo.created))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash := mustHash(t, "correct horse")
	adminRepo := &mockAdminRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.Admin, error) {
			return &model.Admin{ID: "admin-1", PasswordHash: hash}, nil
		},
	}
	svc := newTestService(t, adminRepo, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "admin@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.Admin, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, adminRepo, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "anything")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRepositoryError(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.Admin, error) {
			return nil, errors.New("db down")
		},
	}
	svc := newTestService(t, adminRepo, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "admin@example.com", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want a wrapped repository error", err)
	}
}

func TestLogout(t *testing.T) {
	deleted := ""
	sessionRepo := &mockSessionRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestService(t, &mockAdminRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "sess-1" {
		t.Errorf("deleted session = %q, want sess-1", deleted)
	}
}

func TestLogoutEmptySessionID(t *testing.T) {
	svc := newTestService(t, &mockAdminRepo{}, &mockSessionRepo{})
	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Error("expected an error for empty session ID")
	}
}

func TestGetCurrentAdmin(t *testing.T) {
	adminRepo := &mockAdminRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Admin, error) {
			return &model.Admin{ID: id, Email: "admin@example.com", Name: "Site Admin"}, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, AdminID: "admin-1"}, nil
		},
	}
	svc := newTestService(t, adminRepo, sessionRepo)

	admin, err := svc.GetCurrentAdmin(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.ID != "admin-1" {
		t.Errorf("admin ID = %q, want admin-1", admin.ID)
	}
}

func TestGetCurrentAdminExpiredSession(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil // repository filters out expired sessions
		},
	}
	svc := newTestService(t, &mockAdminRepo{}, sessionRepo)

	if _, err := svc.GetCurrentAdmin(context.Background(), "old"); err == nil {
		t.Error("expected an error for an expired session")
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}
