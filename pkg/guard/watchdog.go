// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"context"
	"errors"
	"time"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/pkg/session"
)

// Watchdog periodically re-validates the session slot. The liveness tick
// exercises the lazy-expiry path so a lapsed session is cleared even when
// nothing reads it; the inactivity tick forces a logout after too long
// without activity.
type Watchdog struct {
	sessions session.ServiceInterface

	livenessInterval  time.Duration
	inactivityTimeout time.Duration
	now               func() time.Time

	logger logging.LoggerInterface
}

func NewWatchdog(
	sessions session.ServiceInterface,
	livenessInterval time.Duration,
	inactivityTimeout time.Duration,
	logger logging.LoggerInterface,
) *Watchdog {
	return &Watchdog{
		sessions:          sessions,
		livenessInterval:  livenessInterval,
		inactivityTimeout: inactivityTimeout,
		now:               time.Now,
		logger:            logger,
	}
}

// Run blocks until ctx is cancelled. Callers start it in its own
// goroutine.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watchdog) check(ctx context.Context) {
	// IsAuthenticated triggers the lazy-expiry delete when the session
	// has lapsed.
	if _, err := w.sessions.IsAuthenticated(ctx); err != nil {
		w.logger.Errorf("watchdog liveness check failed: %v", err)
		return
	}

	sess, err := w.sessions.CurrentSession(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			w.logger.Errorf("watchdog session read failed: %v", err)
		}
		return
	}

	if w.now().UTC().Sub(sess.LastActivity) > w.inactivityTimeout {
		w.logger.Infof("session for %s inactive for more than %s, logging out", sess.Username, w.inactivityTimeout)
		if err := w.sessions.Logout(ctx); err != nil {
			w.logger.Errorf("watchdog logout failed: %v", err)
		}
	}
}
