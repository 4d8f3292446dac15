package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/inventiapp/stocktrack-backend/pkg/auth"
	"github.com/inventiapp/stocktrack-backend/pkg/auth/session"
	"github.com/inventiapp/stocktrack-backend/pkg/config"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{ ok bool }

func (s stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return s.ok, nil
}

func testRouter(t *testing.T, sessions session.AccessSessionChecker) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 15}
	logg := logger.New(logger.Options{ServiceName: "test"})
	return NewRouter(cfg, logg, stubPinger{}, nil, nil, sessions, Services{})
}

func TestHealthLive(t *testing.T) {
	r := testRouter(t, stubSessionChecker{ok: true})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-StockTrack-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-StockTrack-Env"))
	}
}

func TestPublicPing(t *testing.T) {
	r := testRouter(t, stubSessionChecker{ok: true})

	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data["scope"] != "public" {
		t.Fatalf("unexpected scope %q", payload.Data["scope"])
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	r := testRouter(t, stubSessionChecker{ok: true})

	paths := []string{
		"/api/v1/ping",
		"/api/v1/products",
		"/api/v1/sales",
		"/api/v1/reports/dashboard",
		"/api/admin/v1/users",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestAdminRoutesRejectEmployeeRole(t *testing.T) {
	r := testRouter(t, stubSessionChecker{ok: true})

	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 15}
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleEmployee,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAuthenticatedPingCarriesUser(t *testing.T) {
	r := testRouter(t, stubSessionChecker{ok: true})

	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 15}
	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleAdmin,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data["user_id"] != userID.String() {
		t.Fatalf("expected user id %s got %q", userID, payload.Data["user_id"])
	}
}
