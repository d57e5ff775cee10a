// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/storage"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

func newTestService(t *testing.T) (*Service, *storage.LocalStore) {
	t.Helper()

	store, err := storage.NewLocalStore("", logging.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	svc := NewService(store, 24*time.Hour, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
	return svc, store
}

func seedUser(t *testing.T, store *storage.LocalStore, u *types.User) *types.User {
	t.Helper()

	created, err := store.CreateUser(context.Background(), u)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return created
}

func TestAuthenticateSuccess(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	if err := store.UpsertRole(ctx, &types.Role{
		ID:          "manager",
		Permissions: []string{"dashboard:view", "reports:view"},
	}); err != nil {
		t.Fatalf("UpsertRole: %v", err)
	}
	seedUser(t, store, &types.User{
		Username:    "manager",
		Password:    "secret",
		Role:        "manager",
		Permissions: []string{"reports:export"},
		Status:      types.StatusActive,
	})

	result, err := svc.Authenticate(ctx, "manager", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.User.Password != "" {
		t.Fatal("returned user must have the password blanked")
	}
	if result.User.LastLogin == nil {
		t.Fatal("expected last_login to be stamped")
	}
	if result.Session.Token == "" {
		t.Fatal("expected a session token")
	}

	want := map[string]bool{"dashboard:view": true, "reports:view": true, "reports:export": true}
	if len(result.Session.Permissions) != len(want) {
		t.Fatalf("unexpected snapshot: %v", result.Session.Permissions)
	}
	for _, p := range result.Session.Permissions {
		if !want[p] {
			t.Fatalf("unexpected permission in snapshot: %s", p)
		}
	}

	stored, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got := stored.ExpiresAt.Sub(stored.LoginTime); got != 24*time.Hour {
		t.Fatalf("expected 24h lifetime, got %s", got)
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	seedUser(t, store, &types.User{Username: "alice", Password: "right", Status: types.StatusActive})
	seedUser(t, store, &types.User{Username: "bob", Password: "right", Status: types.StatusInactive})

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown username", "ghost", "whatever"},
		{"wrong password", "alice", "wrong"},
		{"inactive account", "bob", "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Authenticate(ctx, tt.username, tt.password)
			if err != nil {
				t.Fatalf("Authenticate: %v", err)
			}
			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Message != "invalid credentials" {
				t.Fatalf("expected uniform message, got %q", result.Message)
			}
			if result.User != nil || result.Session != nil {
				t.Fatal("failed login must not leak user or session data")
			}
		})
	}
}

func TestAuthenticateReplacesSessionSlot(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	seedUser(t, store, &types.User{Username: "alice", Password: "pw", Status: types.StatusActive})
	seedUser(t, store, &types.User{Username: "carol", Password: "pw", Status: types.StatusActive})

	if _, err := svc.Authenticate(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Authenticate alice: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "carol", "pw"); err != nil {
		t.Fatalf("Authenticate carol: %v", err)
	}

	sess, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Username != "carol" {
		t.Fatalf("expected slot held by carol, got %s", sess.Username)
	}
}

func TestIsAuthenticatedExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	seedUser(t, store, &types.User{Username: "alice", Password: "pw", Status: types.StatusActive})

	loginTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return loginTime }
	if _, err := svc.Authenticate(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	// Exactly at the deadline the session is still valid.
	svc.now = func() time.Time { return loginTime.Add(24 * time.Hour) }
	ok, err := svc.IsAuthenticated(ctx)
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if !ok {
		t.Fatal("session at exactly expires_at must still be valid")
	}

	// One second past, the session lapses and the slot is cleared.
	svc.now = func() time.Time { return loginTime.Add(24*time.Hour + time.Second) }
	ok, err = svc.IsAuthenticated(ctx)
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if ok {
		t.Fatal("session past expires_at must be invalid")
	}
	if _, err := store.GetSession(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected expired session to be deleted, got %v", err)
	}
}

func TestCurrentUserNoSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.CurrentUser(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCurrentUserCompany(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	company, err := store.CreateCompany(ctx, &types.Company{Code: "ACME", Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}

	seedUser(t, store, &types.User{Username: "manager", Password: "pw", Status: types.StatusActive, CompanyID: &company.ID})
	seedUser(t, store, &types.User{Username: "admin", Password: "pw", Status: types.StatusActive, Role: types.SuperAdminRole})

	if _, err := svc.Authenticate(ctx, "manager", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	got, err := svc.CurrentUserCompany(ctx)
	if err != nil {
		t.Fatalf("CurrentUserCompany: %v", err)
	}
	if got == nil || got.ID != company.ID {
		t.Fatalf("expected company %s, got %+v", company.ID, got)
	}

	// A user without a tenant yields a nil company and no error.
	if _, err := svc.Authenticate(ctx, "admin", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	got, err = svc.CurrentUserCompany(ctx)
	if err != nil {
		t.Fatalf("CurrentUserCompany: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil company for unbound user, got %+v", got)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	seedUser(t, store, &types.User{Username: "alice", Password: "pw", Status: types.StatusActive})
	if _, err := svc.Authenticate(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout with no session: %v", err)
	}

	ok, err := svc.IsAuthenticated(ctx)
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if ok {
		t.Fatal("expected no session after logout")
	}
}

func TestTouchUpdatesActivity(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	seedUser(t, store, &types.User{Username: "alice", Password: "pw", Status: types.StatusActive})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	if _, err := svc.Authenticate(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	svc.now = func() time.Time { return start.Add(10 * time.Minute) }
	if err := svc.Touch(ctx); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	sess, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !sess.LastActivity.Equal(start.Add(10 * time.Minute)) {
		t.Fatalf("expected activity stamp, got %s", sess.LastActivity)
	}

	// Touch without a session is a no-op.
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Touch(ctx); err != nil {
		t.Fatalf("Touch with no session: %v", err)
	}
}

func TestPermissionSnapshotIsFrozen(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	if err := store.UpsertRole(ctx, &types.Role{ID: "viewer", Permissions: []string{"dashboard:view"}}); err != nil {
		t.Fatalf("UpsertRole: %v", err)
	}
	seedUser(t, store, &types.User{Username: "alice", Password: "pw", Role: "viewer", Status: types.StatusActive})

	if _, err := svc.Authenticate(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	// Widening the role after login must not leak into the live session.
	if err := store.UpsertRole(ctx, &types.Role{ID: "viewer", Permissions: []string{"dashboard:view", "users:manage"}}); err != nil {
		t.Fatalf("UpsertRole: %v", err)
	}

	sess, err := svc.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if len(sess.Permissions) != 1 || sess.Permissions[0] != "dashboard:view" {
		t.Fatalf("snapshot changed after role edit: %v", sess.Permissions)
	}
}
