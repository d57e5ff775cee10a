// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

func newTestMux(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()

	svc, store := newTestService(t)
	seedUser(t, store, &types.User{Username: "alice", Password: "pw", Status: types.StatusActive})

	mux := chi.NewMux()
	NewAPI(svc, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger()).RegisterEndpoints(mux)
	return mux, svc
}

func TestLoginEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOK     bool
	}{
		{"valid credentials", `{"username":"alice","password":"pw"}`, http.StatusOK, true},
		{"wrong password", `{"username":"alice","password":"nope"}`, http.StatusUnauthorized, false},
		{"missing fields", `{"username":"alice"}`, http.StatusBadRequest, false},
		{"malformed body", `{"username":`, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v0/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var body struct {
				Success bool        `json:"success"`
				User    *types.User `json:"user"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if body.Success != tt.wantOK {
				t.Fatalf("expected success=%v, got %v", tt.wantOK, body.Success)
			}
			if tt.wantOK && body.User.Password != "" {
				t.Fatal("login response leaked the password field")
			}
		})
	}
}

func TestMeEndpoint(t *testing.T) {
	mux, svc := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/auth/me", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	if _, err := svc.Authenticate(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v0/auth/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body.User == nil || body.User.Username != "alice" {
		t.Fatalf("unexpected user payload: %+v", body.User)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	mux, svc := newTestMux(t)

	if _, err := svc.Authenticate(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v0/auth/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Logout with no session still succeeds.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v0/auth/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected idempotent logout, got %d", rec.Code)
	}
}
