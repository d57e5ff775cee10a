// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/storage"
)

func TestWatchdogForcesInactivityLogout(t *testing.T) {
	ctx := context.Background()
	_, sessions, store := newTestGuard(t)

	if result, err := sessions.Authenticate(ctx, "manager", "pw"); err != nil || !result.Success {
		t.Fatalf("login failed: %v", err)
	}

	w := NewWatchdog(sessions, 5*time.Minute, 30*time.Minute, logging.NewNoopLogger())

	// Fresh session survives a check.
	w.check(ctx)
	if _, err := store.GetSession(ctx); err != nil {
		t.Fatalf("fresh session must survive: %v", err)
	}

	// Pretend half an hour has passed without activity.
	w.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	w.check(ctx)
	if _, err := store.GetSession(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected inactivity logout, got %v", err)
	}
}

func TestWatchdogClearsExpiredSession(t *testing.T) {
	ctx := context.Background()
	_, sessions, store := newTestGuard(t)

	if result, err := sessions.Authenticate(ctx, "manager", "pw"); err != nil || !result.Success {
		t.Fatalf("login failed: %v", err)
	}

	// Push the deadline into the past; the liveness check must clear it.
	sess, err := store.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	sess.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	if err := store.PutSession(ctx, sess); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	w := NewWatchdog(sessions, 5*time.Minute, 30*time.Minute, logging.NewNoopLogger())
	w.check(ctx)

	if _, err := store.GetSession(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected expired session cleared, got %v", err)
	}
}

func TestWatchdogRunStopsOnCancel(t *testing.T) {
	_, sessions, _ := newTestGuard(t)

	w := NewWatchdog(sessions, time.Millisecond, 30*time.Minute, logging.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not stop on context cancel")
	}
}
