// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/storage"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
	"github.com/canonical/dashboard-auth-service/pkg/session"
)

var _ ResolverInterface = (*Resolver)(nil)

// Resolver answers permission, role and dashboard-access questions against
// the live session. Permission checks read the snapshot frozen at login;
// they never re-read the role record.
type Resolver struct {
	session SessionInterface
	storage StorageInterface

	// routePermissions maps a path to the permissions that may unlock it,
	// any one of which suffices. Paths with no entry only require
	// authentication.
	routePermissions map[string][]string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewResolver(
	sessions SessionInterface,
	storage StorageInterface,
	routePermissions map[string][]string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Resolver {
	if routePermissions == nil {
		routePermissions = DefaultRoutePermissions()
	}
	return &Resolver{
		session:          sessions,
		storage:          storage,
		routePermissions: routePermissions,
		tracer:           tracer,
		monitor:          monitor,
		logger:           logger,
	}
}

// DefaultRoutePermissions is the built-in path to permission table. OR
// semantics: holding any listed permission unlocks the path.
func DefaultRoutePermissions() map[string][]string {
	return map[string][]string{
		"/admin.html":    {"users:manage", "companies:manage"},
		"/settings.html": {"settings:manage"},
		"/reports.html":  {"reports:view"},
	}
}

func (r *Resolver) HasPermission(ctx context.Context, permission string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.Resolver.HasPermission")
	defer span.End()

	sess, err := r.session.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return false, nil
		}
		return false, err
	}

	if sess.HasWildcard() {
		return true, nil
	}
	return slices.Contains(sess.Permissions, permission), nil
}

// HasRole compares the session role by exact string equality. There is no
// role hierarchy here; AccessLevel exposes the numeric level instead.
func (r *Resolver) HasRole(ctx context.Context, role string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.Resolver.HasRole")
	defer span.End()

	sess, err := r.session.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return false, nil
		}
		return false, err
	}
	return sess.Role == role, nil
}

// AccessLevel returns the numeric level of the session's role record, 0
// without a session or when the role record is missing.
func (r *Resolver) AccessLevel(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.Resolver.AccessLevel")
	defer span.End()

	sess, err := r.session.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return 0, nil
		}
		return 0, err
	}

	role, err := r.storage.GetRole(ctx, sess.Role)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load role %s: %w", sess.Role, err)
	}
	return role.Level, nil
}

func (r *Resolver) HasDashboardAccess(ctx context.Context, dashboardID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.Resolver.HasDashboardAccess")
	defer span.End()

	user, err := r.session.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return false, nil
		}
		return false, err
	}

	if user.Role == types.SuperAdminRole {
		return true, nil
	}

	dashboard, err := r.storage.GetDashboard(ctx, dashboardID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load dashboard: %w", err)
	}

	// Tenant isolation is strict equality, no cross-company grants.
	return user.CompanyID != nil && *user.CompanyID == dashboard.CompanyID, nil
}

// DashboardsForUser lists every dashboard for a super admin and only the
// user's own tenant's dashboards otherwise.
func (r *Resolver) DashboardsForUser(ctx context.Context) ([]*types.Dashboard, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.Resolver.DashboardsForUser")
	defer span.End()

	user, err := r.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if user.Role == types.SuperAdminRole {
		return r.storage.ListDashboards(ctx)
	}
	if user.CompanyID == nil {
		return nil, nil
	}
	return r.storage.ListDashboardsByCompany(ctx, *user.CompanyID)
}

// RoutePermissions returns the permissions that may unlock path. An empty
// result means the path only needs authentication.
func (r *Resolver) RoutePermissions(path string) []string {
	return r.routePermissions[path]
}

// CanAccessRoute reports whether the current session satisfies the route's
// permission table entry. Any listed permission suffices.
func (r *Resolver) CanAccessRoute(ctx context.Context, path string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "authorization.Resolver.CanAccessRoute")
	defer span.End()

	required := r.RoutePermissions(path)
	if len(required) == 0 {
		return true, nil
	}

	for _, p := range required {
		ok, err := r.HasPermission(ctx, p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	sess, err := r.session.CurrentSession(ctx)
	if err == nil {
		r.logger.Security().AuthzFailure(sess.Username, fmt.Sprintf("access %s", path))
	}
	return false, nil
}
