// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

var _ SecurityLoggerInterface = (*SecurityLogger)(nil)

// SecurityLogger records authentication and authorization events on a
// named sub-logger.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) AuthSuccess(username string) {
	s.l.Info("authentication succeeded",
		zap.String("event", "auth_success"),
		zap.String("username", username),
	)
}

func (s *SecurityLogger) AuthFailure(username string, reason string) {
	s.l.Warn("authentication failed",
		zap.String("event", "auth_failure"),
		zap.String("username", username),
		zap.String("reason", reason),
	)
}

func (s *SecurityLogger) AuthzFailure(subject string, action string) {
	s.l.Warn("authorization denied",
		zap.String("event", "authz_failure"),
		zap.String("subject", subject),
		zap.String("action", action),
	)
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("service started", zap.String("event", "system_startup"))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("service stopped", zap.String("event", "system_shutdown"))
}

func (s *SecurityLogger) SessionExpired(username string) {
	s.l.Info("session expired",
		zap.String("event", "session_expired"),
		zap.String("username", username),
	)
}
