// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/storage"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/pkg/authorization"
	"github.com/canonical/dashboard-auth-service/pkg/directory"
	"github.com/canonical/dashboard-auth-service/pkg/guard"
	"github.com/canonical/dashboard-auth-service/pkg/metrics"
	"github.com/canonical/dashboard-auth-service/pkg/session"
	"github.com/canonical/dashboard-auth-service/pkg/status"
)

func NewRouter(
	backend storage.Backend,
	sessions session.ServiceInterface,
	resolver authorization.ResolverInterface,
	pageGuard *guard.Guard,
	dir directory.ServiceInterface,
	corsOrigins []string,
	staticDir string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(corsOrigins),
		pageGuard.Middleware(),
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(string(backend), tracer, monitor, logger).RegisterEndpoints(router)
	session.NewAPI(sessions, tracer, monitor, logger).RegisterEndpoints(router)
	authorization.NewAPI(resolver, tracer, monitor, logger).RegisterEndpoints(router)

	// The directory endpoints mutate the store, so they sit behind the
	// session middleware: no session means 401 before any permission check.
	router.Group(func(r chi.Router) {
		r.Use(session.NewMiddleware(sessions, tracer, monitor, logger).Authenticate())
		directory.NewAPI(dir, tracer, monitor, logger).RegisterEndpoints(r)
	})

	if staticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
