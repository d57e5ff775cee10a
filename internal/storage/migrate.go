// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

// MigrationCompletedActivity is the log sentinel guarding the one-time
// local-to-remote copy.
const MigrationCompletedActivity = "migration_completed"

// ImporterInterface is a store that also accepts records under their
// existing ids, so cross references survive the copy.
type ImporterInterface interface {
	StoreInterface

	ImportCompany(ctx context.Context, c *types.Company) error
	ImportUser(ctx context.Context, u *types.User) error
	ImportDashboard(ctx context.Context, d *types.Dashboard) error
}

// Migrator copies companies, users and dashboards from the local backend
// into the remote one, exactly once. Roles and permissions are written
// from the built-in defaults rather than copied, so catalog updates ship
// with the binary.
type Migrator struct {
	local  StoreInterface
	remote ImporterInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMigrator(local StoreInterface, remote ImporterInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Migrator {
	m := new(Migrator)

	m.local = local
	m.remote = remote

	m.tracer = tracer
	m.monitor = monitor
	m.logger = logger

	return m
}

// Run performs the migration unless the sentinel log entry already exists
// on the remote side. Safe to call on every startup.
func (m *Migrator) Run(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "storage.Migrator.Run")
	defer span.End()

	done, err := m.remote.HasLogActivity(ctx, MigrationCompletedActivity)
	if err != nil {
		return fmt.Errorf("failed to check migration sentinel: %w", err)
	}
	if done {
		m.logger.Debugf("migration already completed, skipping")
		return nil
	}

	for _, p := range defaultPermissions() {
		if err := m.remote.UpsertPermission(ctx, p); err != nil {
			return fmt.Errorf("failed to migrate permission %s: %w", p.ID, err)
		}
	}
	for _, r := range defaultRoles() {
		if err := m.remote.UpsertRole(ctx, r); err != nil {
			return fmt.Errorf("failed to migrate role %s: %w", r.ID, err)
		}
	}

	companies, err := m.local.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("failed to read local companies: %w", err)
	}
	for _, c := range companies {
		if err := m.remote.ImportCompany(ctx, c); err != nil {
			return fmt.Errorf("failed to migrate company %s: %w", c.Code, err)
		}
	}

	users, err := m.local.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to read local users: %w", err)
	}
	for _, u := range users {
		if err := m.remote.ImportUser(ctx, u); err != nil {
			return fmt.Errorf("failed to migrate user %s: %w", u.Username, err)
		}
	}

	dashboards, err := m.local.ListDashboards(ctx)
	if err != nil {
		return fmt.Errorf("failed to read local dashboards: %w", err)
	}
	for _, d := range dashboards {
		if err := m.remote.ImportDashboard(ctx, d); err != nil {
			return fmt.Errorf("failed to migrate dashboard %s: %w", d.Name, err)
		}
	}

	if err := m.remote.AppendLog(ctx, MigrationCompletedActivity, fmt.Sprintf("migrated %d companies, %d users, %d dashboards", len(companies), len(users), len(dashboards))); err != nil {
		return fmt.Errorf("failed to record migration sentinel: %w", err)
	}

	m.logger.Infof("migration completed: %d companies, %d users, %d dashboards", len(companies), len(users), len(dashboards))
	return nil
}
