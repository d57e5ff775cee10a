// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/pkg/authorization"
	"github.com/canonical/dashboard-auth-service/pkg/session"
)

var _ GuardInterface = (*Guard)(nil)

// DefaultProtectedPrefixes lists path prefixes that require a session.
func DefaultProtectedPrefixes() []string {
	return []string{
		"/admin",
		"/dashboard",
		"/accounts",
		"/reports",
		"/settings",
	}
}

// DefaultPublicPaths lists paths that never require a session.
func DefaultPublicPaths() []string {
	return []string{
		"/",
		"/index.html",
		"/login.html",
		"/unauthorized.html",
	}
}

// Guard enforces the page access rules: unauthenticated visitors to a
// protected path are redirected to the login page with the original path
// preserved, authenticated visitors lacking the route's permission land on
// the unauthorized page. Paths that are neither public nor protected pass
// through untouched.
type Guard struct {
	sessions session.ServiceInterface
	resolver authorization.ResolverInterface

	loginPath         string
	unauthorizedPath  string
	protectedPrefixes []string
	publicPaths       map[string]bool

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewGuard(
	sessions session.ServiceInterface,
	resolver authorization.ResolverInterface,
	loginPath string,
	unauthorizedPath string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Guard {
	public := make(map[string]bool)
	for _, p := range DefaultPublicPaths() {
		public[p] = true
	}
	public[loginPath] = true
	public[unauthorizedPath] = true

	return &Guard{
		sessions:          sessions,
		resolver:          resolver,
		loginPath:         loginPath,
		unauthorizedPath:  unauthorizedPath,
		protectedPrefixes: DefaultProtectedPrefixes(),
		publicPaths:       public,
		tracer:            tracer,
		monitor:           monitor,
		logger:            logger,
	}
}

func (g *Guard) isProtected(path string) bool {
	if g.publicPaths[path] {
		return false
	}
	for _, prefix := range g.protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *Guard) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := g.loginPath + "?redirect=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusFound)
}

func (g *Guard) redirectToUnauthorized(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, g.unauthorizedPath, http.StatusFound)
}

// Middleware guards every protected path on the mux it wraps.
func (g *Guard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.isProtected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := g.tracer.Start(r.Context(), "guard.Guard.Middleware")
			defer span.End()

			authenticated, err := g.sessions.IsAuthenticated(ctx)
			if err != nil {
				g.logger.Errorf("failed to check session: %v", err)
				g.redirectToLogin(w, r)
				return
			}
			if !authenticated {
				g.redirectToLogin(w, r)
				return
			}

			allowed, err := g.resolver.CanAccessRoute(ctx, r.URL.Path)
			if err != nil {
				g.logger.Errorf("failed to resolve route access: %v", err)
				g.redirectToUnauthorized(w, r)
				return
			}
			if !allowed {
				g.redirectToUnauthorized(w, r)
				return
			}

			if err := g.sessions.Touch(ctx); err != nil {
				g.logger.Errorf("failed to record session activity: %v", err)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth wraps a handler so only authenticated visitors reach it.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := g.tracer.Start(r.Context(), "guard.Guard.RequireAuth")
		defer span.End()

		authenticated, err := g.sessions.IsAuthenticated(ctx)
		if err != nil || !authenticated {
			g.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission wraps a handler behind a single permission check.
func (g *Guard) RequirePermission(permission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := g.tracer.Start(r.Context(), "guard.Guard.RequirePermission")
		defer span.End()

		authenticated, err := g.sessions.IsAuthenticated(ctx)
		if err != nil || !authenticated {
			g.redirectToLogin(w, r)
			return
		}

		ok, err := g.resolver.HasPermission(ctx, permission)
		if err != nil {
			g.logger.Errorf("failed to check permission: %v", err)
			g.redirectToUnauthorized(w, r)
			return
		}
		if !ok {
			g.redirectToUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole wraps a handler behind an exact role check.
func (g *Guard) RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := g.tracer.Start(r.Context(), "guard.Guard.RequireRole")
		defer span.End()

		authenticated, err := g.sessions.IsAuthenticated(ctx)
		if err != nil || !authenticated {
			g.redirectToLogin(w, r)
			return
		}

		ok, err := g.resolver.HasRole(ctx, role)
		if err != nil {
			g.logger.Errorf("failed to check role: %v", err)
			g.redirectToUnauthorized(w, r)
			return
		}
		if !ok {
			g.redirectToUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
