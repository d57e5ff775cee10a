// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Security() SecurityLoggerInterface
}

// SecurityLoggerInterface emits the audit-relevant subset of log events on
// a dedicated logger so they can be shipped separately.
type SecurityLoggerInterface interface {
	AuthSuccess(username string)
	AuthFailure(username string, reason string)
	AuthzFailure(subject string, action string)
	SessionExpired(username string)
	SystemStartup()
	SystemShutdown()
}
