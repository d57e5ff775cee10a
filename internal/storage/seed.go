// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"

	"github.com/canonical/dashboard-auth-service/internal/types"
)

// Default records written into an empty local backend so a fresh install
// is usable out of the box. Passwords are development defaults and are
// expected to be rotated immediately.

func defaultPermissions() []*types.Permission {
	return []*types.Permission{
		{ID: "dashboard:view", Name: "View dashboards", Category: "dashboard"},
		{ID: "dashboard:manage", Name: "Manage dashboards", Category: "dashboard"},
		{ID: "users:view", Name: "View users", Category: "users"},
		{ID: "users:manage", Name: "Manage users", Category: "users"},
		{ID: "companies:view", Name: "View companies", Category: "companies"},
		{ID: "companies:manage", Name: "Manage companies", Category: "companies"},
		{ID: "reports:view", Name: "View reports", Category: "reports"},
		{ID: "reports:export", Name: "Export reports", Category: "reports"},
		{ID: "settings:manage", Name: "Manage settings", Category: "settings"},
	}
}

func defaultRoles() []*types.Role {
	return []*types.Role{
		{
			ID:          types.SuperAdminRole,
			Name:        "Super Administrator",
			Description: "Unrestricted access across all tenants",
			Permissions: []string{types.WildcardPermission},
			Level:       100,
		},
		{
			ID:          "admin",
			Name:        "Administrator",
			Description: "Full access within the tenant",
			Permissions: []string{
				"dashboard:view", "dashboard:manage",
				"users:view", "users:manage",
				"companies:view",
				"reports:view", "reports:export",
				"settings:manage",
			},
			Level: 80,
		},
		{
			ID:          "manager",
			Name:        "Manager",
			Description: "Dashboard and reporting access within the tenant",
			Permissions: []string{
				"dashboard:view",
				"users:view",
				"reports:view", "reports:export",
			},
			Level: 50,
		},
		{
			ID:          "viewer",
			Name:        "Viewer",
			Description: "Read-only dashboard access",
			Permissions: []string{"dashboard:view"},
			Level:       10,
		},
	}
}

// Seed writes the default roles, permissions, companies, users and
// dashboards into the store. Intended for an empty local backend.
func Seed(ctx context.Context, store StoreInterface) error {
	for _, p := range defaultPermissions() {
		if err := store.UpsertPermission(ctx, p); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", p.ID, err)
		}
	}

	for _, r := range defaultRoles() {
		if err := store.UpsertRole(ctx, r); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", r.ID, err)
		}
	}

	acme, err := store.CreateCompany(ctx, &types.Company{
		Code:         "ACME",
		Name:         "Acme Marketing",
		Description:  "Default demonstration tenant",
		Status:       types.StatusActive,
		Settings:     types.CompanySettings{Theme: "light", Timezone: "UTC", Locale: "en"},
		ContactEmail: "ops@acme.example",
	})
	if err != nil {
		return fmt.Errorf("failed to seed company: %w", err)
	}

	globex, err := store.CreateCompany(ctx, &types.Company{
		Code:         "GLOBEX",
		Name:         "Globex Media",
		Description:  "Second demonstration tenant",
		Status:       types.StatusActive,
		Settings:     types.CompanySettings{Theme: "dark", Timezone: "UTC", Locale: "en"},
		ContactEmail: "ops@globex.example",
	})
	if err != nil {
		return fmt.Errorf("failed to seed company: %w", err)
	}

	users := []*types.User{
		{
			Username:    "admin",
			Password:    "admin123",
			Email:       "admin@example.com",
			Role:        types.SuperAdminRole,
			Permissions: []string{types.WildcardPermission},
			CompanyID:   nil,
			Status:      types.StatusActive,
			Name:        "System Administrator",
			Department:  "Operations",
		},
		{
			Username:   "manager",
			Password:   "manager123",
			Email:      "manager@acme.example",
			Role:       "manager",
			CompanyID:  &acme.ID,
			Status:     types.StatusActive,
			Name:       "Acme Manager",
			Department: "Marketing",
		},
		{
			Username:   "viewer",
			Password:   "viewer123",
			Email:      "viewer@globex.example",
			Role:       "viewer",
			CompanyID:  &globex.ID,
			Status:     types.StatusActive,
			Name:       "Globex Viewer",
			Department: "Marketing",
		},
	}
	for _, u := range users {
		if _, err := store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
	}

	dashboards := []*types.Dashboard{
		{
			File:                "campaign-overview.html",
			Name:                "Campaign Overview",
			Description:         "Spend and conversion summary",
			Category:            "marketing",
			Icon:                "chart-line",
			Status:              types.StatusActive,
			CompanyID:           acme.ID,
			RequiredPermissions: []string{"dashboard:view"},
		},
		{
			File:                "channel-performance.html",
			Name:                "Channel Performance",
			Description:         "Per-channel engagement",
			Category:            "marketing",
			Icon:                "chart-bar",
			Status:              types.StatusActive,
			CompanyID:           acme.ID,
			RequiredPermissions: []string{"dashboard:view"},
		},
		{
			File:                "audience-reach.html",
			Name:                "Audience Reach",
			Description:         "Audience segments and reach",
			Category:            "marketing",
			Icon:                "chart-pie",
			Status:              types.StatusActive,
			CompanyID:           globex.ID,
			RequiredPermissions: []string{"dashboard:view"},
		},
	}
	for _, d := range dashboards {
		if _, err := store.CreateDashboard(ctx, d); err != nil {
			return fmt.Errorf("failed to seed dashboard %s: %w", d.Name, err)
		}
	}

	return nil
}
