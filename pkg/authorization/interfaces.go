// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/dashboard-auth-service/internal/types"
)

// SessionInterface is the slice of the session service the resolver needs.
type SessionInterface interface {
	CurrentSession(ctx context.Context) (*types.Session, error)
	CurrentUser(ctx context.Context) (*types.User, error)
}

// StorageInterface is the slice of the credential store the resolver needs.
type StorageInterface interface {
	GetRole(ctx context.Context, id string) (*types.Role, error)
	GetDashboard(ctx context.Context, id string) (*types.Dashboard, error)
	ListDashboards(ctx context.Context) ([]*types.Dashboard, error)
	ListDashboardsByCompany(ctx context.Context, companyID string) ([]*types.Dashboard, error)
}

type ResolverInterface interface {
	HasPermission(ctx context.Context, permission string) (bool, error)
	HasRole(ctx context.Context, role string) (bool, error)
	AccessLevel(ctx context.Context) (int, error)
	HasDashboardAccess(ctx context.Context, dashboardID string) (bool, error)
	DashboardsForUser(ctx context.Context) ([]*types.Dashboard, error)
	RoutePermissions(path string) []string
	CanAccessRoute(ctx context.Context, path string) (bool, error)
}
