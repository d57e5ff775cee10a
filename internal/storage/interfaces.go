// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/dashboard-auth-service/internal/types"
)

// Collection names understood by both backends.
const (
	CollectionCompanies   = "companies"
	CollectionUsers       = "users"
	CollectionDashboards  = "dashboards"
	CollectionRoles       = "roles"
	CollectionPermissions = "permissions"
	CollectionSessions    = "sessions"
	CollectionLogs        = "logs"
)

// StoreInterface is the credential store contract shared by the local and
// remote backends. Lookups of missing records return ErrNotFound; inserts
// violating a uniqueness invariant return ErrDuplicateKey; infrastructure
// failures are returned wrapped and are never retried here.
type StoreInterface interface {
	CreateCompany(ctx context.Context, c *types.Company) (*types.Company, error)
	GetCompany(ctx context.Context, id string) (*types.Company, error)
	GetCompanyByCode(ctx context.Context, code string) (*types.Company, error)
	ListCompanies(ctx context.Context) ([]*types.Company, error)
	UpdateCompany(ctx context.Context, c *types.Company) error
	DeleteCompany(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error
	DeleteUser(ctx context.Context, id string) error

	CreateDashboard(ctx context.Context, d *types.Dashboard) (*types.Dashboard, error)
	GetDashboard(ctx context.Context, id string) (*types.Dashboard, error)
	ListDashboards(ctx context.Context) ([]*types.Dashboard, error)
	ListDashboardsByCompany(ctx context.Context, companyID string) ([]*types.Dashboard, error)
	UpdateDashboard(ctx context.Context, d *types.Dashboard) error
	DeleteDashboard(ctx context.Context, id string) error

	UpsertRole(ctx context.Context, r *types.Role) error
	GetRole(ctx context.Context, id string) (*types.Role, error)
	ListRoles(ctx context.Context) ([]*types.Role, error)

	UpsertPermission(ctx context.Context, p *types.Permission) error
	ListPermissions(ctx context.Context) ([]*types.Permission, error)

	// The session slot holds at most one record; PutSession replaces it.
	GetSession(ctx context.Context) (*types.Session, error)
	PutSession(ctx context.Context, s *types.Session) error
	DeleteSession(ctx context.Context) error

	AppendLog(ctx context.Context, activity, detail string) error
	HasLogActivity(ctx context.Context, activity string) (bool, error)
	ListLogs(ctx context.Context) ([]*types.LogEntry, error)
}
