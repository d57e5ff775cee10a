// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

func newTestMiddleware(t *testing.T) (*Middleware, *Service) {
	t.Helper()

	svc, store := newTestService(t)
	seedUser(t, store, &types.User{
		Username: "admin",
		Password: "secret",
		Role:     types.SuperAdminRole,
		Status:   types.StatusActive,
	})

	mw := NewMiddleware(svc, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
	return mw, svc
}

func TestMiddlewareRejectsWithoutSession(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	handler := mw.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a session")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v0/users", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMiddlewareInjectsSession(t *testing.T) {
	ctx := context.Background()
	mw, svc := newTestMiddleware(t)

	result, err := svc.Authenticate(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !result.Success {
		t.Fatalf("login failed: %s", result.Message)
	}

	var seen *types.Session
	handler := mw.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := GetSession(r.Context()); ok {
			seen = sess
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v0/users", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if seen == nil {
		t.Fatal("expected session on the request context")
	}
	if seen.UserID != result.Session.UserID {
		t.Fatalf("expected session for user %s, got %s", result.Session.UserID, seen.UserID)
	}
}
