// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()

	s, err := NewLocalStore("", logging.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestLocalStoreCompanyCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateCompany(ctx, &types.Company{Code: "ACME", Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated company ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := s.GetCompany(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if got.Code != "ACME" {
		t.Fatalf("expected code ACME, got %s", got.Code)
	}

	byCode, err := s.GetCompanyByCode(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetCompanyByCode: %v", err)
	}
	if byCode.ID != created.ID {
		t.Fatalf("expected ID %s, got %s", created.ID, byCode.ID)
	}

	got.Name = "Acme Marketing"
	if err := s.UpdateCompany(ctx, got); err != nil {
		t.Fatalf("UpdateCompany: %v", err)
	}
	updated, err := s.GetCompany(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCompany after update: %v", err)
	}
	if updated.Name != "Acme Marketing" {
		t.Fatalf("expected updated name, got %s", updated.Name)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("update must not change created_at")
	}

	if err := s.DeleteCompany(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCompany: %v", err)
	}
	if _, err := s.GetCompany(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreDuplicateCompanyCode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.CreateCompany(ctx, &types.Company{Code: "ACME"}); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	_, err := s.CreateCompany(ctx, &types.Company{Code: "ACME"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestLocalStoreDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.CreateUser(ctx, &types.User{Username: "admin"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := s.CreateUser(ctx, &types.User{Username: "admin"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestLocalStoreGetUserByUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateUser(ctx, &types.User{Username: "manager", Role: "manager"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "manager")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected ID %s, got %s", created.ID, got.ID)
	}

	if _, err := s.GetUserByUsername(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreDashboardsByCompany(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.CreateDashboard(ctx, &types.Dashboard{Name: "A", CompanyID: "c1"}); err != nil {
		t.Fatalf("CreateDashboard: %v", err)
	}
	if _, err := s.CreateDashboard(ctx, &types.Dashboard{Name: "B", CompanyID: "c1"}); err != nil {
		t.Fatalf("CreateDashboard: %v", err)
	}
	if _, err := s.CreateDashboard(ctx, &types.Dashboard{Name: "C", CompanyID: "c2"}); err != nil {
		t.Fatalf("CreateDashboard: %v", err)
	}

	got, err := s.ListDashboardsByCompany(ctx, "c1")
	if err != nil {
		t.Fatalf("ListDashboardsByCompany: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 dashboards, got %d", len(got))
	}
	for _, d := range got {
		if d.CompanyID != "c1" {
			t.Fatalf("dashboard %s leaked from company %s", d.Name, d.CompanyID)
		}
	}
}

func TestLocalStoreSessionSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty slot, got %v", err)
	}

	first := &types.Session{UserID: "u1", Token: "t1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.PutSession(ctx, first); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	second := &types.Session{UserID: "u2", Token: "t2", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.PutSession(ctx, second); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	got, err := s.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UserID != "u2" {
		t.Fatalf("expected slot replaced by u2, got %s", got.UserID)
	}

	if err := s.DeleteSession(ctx); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	// Deleting an empty slot stays a no-op.
	if err := s.DeleteSession(ctx); err != nil {
		t.Fatalf("DeleteSession on empty slot: %v", err)
	}
	if _, err := s.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLocalStoreLogs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.HasLogActivity(ctx, "migration_completed")
	if err != nil {
		t.Fatalf("HasLogActivity: %v", err)
	}
	if ok {
		t.Fatal("expected no log activity yet")
	}

	if err := s.AppendLog(ctx, "migration_completed", "3 records"); err != nil {
		t.Fatalf("AppendLog: %v", err)
	}

	ok, err = s.HasLogActivity(ctx, "migration_completed")
	if err != nil {
		t.Fatalf("HasLogActivity: %v", err)
	}
	if !ok {
		t.Fatal("expected log activity to be recorded")
	}

	logs, err := s.ListLogs(ctx)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Detail != "3 records" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestLocalStorePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewLocalStore(path, logging.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	created, err := s.CreateCompany(ctx, &types.Company{Code: "ACME", Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected blob on disk: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, got %v", err)
	}

	reloaded, err := NewLocalStore(path, logging.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewLocalStore reload: %v", err)
	}
	got, err := reloaded.GetCompany(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCompany after reload: %v", err)
	}
	if got.Name != "Acme" {
		t.Fatalf("expected persisted company, got %+v", got)
	}
}

func TestLocalStoreCopyOnReturn(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateUser(ctx, &types.User{Username: "admin", Name: "Original"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	got.Name = "Mutated"

	again, err := s.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if again.Name != "Original" {
		t.Fatal("store returned a shared reference")
	}
}
