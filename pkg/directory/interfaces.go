// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package directory

import (
	"context"

	"github.com/canonical/dashboard-auth-service/internal/types"
)

// StorageInterface is the slice of the credential store this package needs.
type StorageInterface interface {
	CreateCompany(ctx context.Context, c *types.Company) (*types.Company, error)
	ListCompanies(ctx context.Context) ([]*types.Company, error)
	GetCompany(ctx context.Context, id string) (*types.Company, error)
	UpdateCompany(ctx context.Context, c *types.Company) error

	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error

	CreateDashboard(ctx context.Context, d *types.Dashboard) (*types.Dashboard, error)
	GetDashboard(ctx context.Context, id string) (*types.Dashboard, error)
	UpdateDashboard(ctx context.Context, d *types.Dashboard) error
}

// AuthzInterface answers permission questions for the current session.
type AuthzInterface interface {
	HasPermission(ctx context.Context, permission string) (bool, error)
}

type ServiceInterface interface {
	CreateCompany(ctx context.Context, payload *CompanyPayload) (*types.Company, error)
	ListCompanies(ctx context.Context) ([]*types.Company, error)
	UpdateCompany(ctx context.Context, id string, payload *CompanyPayload) (*types.Company, error)

	CreateUser(ctx context.Context, payload *UserPayload) (*types.User, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateUser(ctx context.Context, id string, payload *UserPayload) (*types.User, error)

	CreateDashboard(ctx context.Context, payload *DashboardPayload) (*types.Dashboard, error)
	UpdateDashboard(ctx context.Context, id string, payload *DashboardPayload) (*types.Dashboard, error)
}
