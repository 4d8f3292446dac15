package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/inventiapp/stocktrack-backend/pkg/auth"
	"github.com/inventiapp/stocktrack-backend/pkg/auth/session"
	"github.com/inventiapp/stocktrack-backend/pkg/config"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testJWTCfg = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "stocktrack",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 60,
}

type fakeUserRepo struct {
	byEmail   map[string]*models.User
	lastLogin map[uuid.UUID]time.Time
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if f.lastLogin == nil {
		f.lastLogin = map[uuid.UUID]time.Time{}
	}
	f.lastLogin[id] = at
	return nil
}

type fakePermissions struct{}

func (fakePermissions) Permissions(_ context.Context, role enums.UserRole) ([]string, error) {
	if role == enums.UserRoleAdmin {
		return []string{"users:manage", "sales:create"}, nil
	}
	return []string{"sales:create"}, nil
}

type fakeSessions struct {
	generated map[string]string
	revoked   []string
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	if f.generated == nil {
		f.generated = map[string]string{}
	}
	token := "refresh-" + accessID
	f.generated[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.generated, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.generated[newID] = token
	return newID, token, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.generated, accessID)
	return nil
}

func newAuthFixture(t *testing.T, active bool) (Service, *models.User, *fakeSessions) {
	t.Helper()

	hash, err := security.HashPassword("correct horse", testPasswordCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        "staff@example.com",
		PasswordHash: hash,
		FirstName:    "Staff",
		LastName:     "Member",
		Role:         enums.UserRoleAdmin,
		IsActive:     active,
	}
	sessions := &fakeSessions{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &fakeUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		Permissions:    fakePermissions{},
		SessionManager: sessions,
		JWTConfig:      testJWTCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, user, sessions
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	svc, user, _ := newAuthFixture(t, true)
	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Staff@Example.com ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	if len(resp.Permissions) != 2 {
		t.Fatalf("expected admin permissions, got %v", resp.Permissions)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTCfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected jti on access token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAuthFixture(t, true)
	ctx := context.Background()

	cases := []LoginRequest{
		{Email: "staff@example.com", Password: "wrong"},
		{Email: "ghost@example.com", Password: "correct horse"},
		{Email: "  ", Password: "correct horse"},
	}
	for _, req := range cases {
		_, err := svc.Login(ctx, req)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", req.Email, err)
		}
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAuthFixture(t, false)
	_, err := svc.Login(context.Background(), LoginRequest{Email: "staff@example.com", Password: "correct horse"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions := newAuthFixture(t, true)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "staff@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == login.AccessToken {
		t.Fatal("expected a new access token")
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for reused refresh token, got %v", err)
	}
	if len(sessions.generated) != 1 {
		t.Fatalf("expected a single live session, got %d", len(sessions.generated))
	}
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAuthFixture(t, true)
	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  strings.Repeat("x", 32),
		RefreshToken: "whatever",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	svc, _, sessions := newAuthFixture(t, true)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "staff@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTCfg, login.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != claims.ID {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}

	if err := svc.Logout(ctx, " "); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for blank access id, got %v", err)
	}
}
