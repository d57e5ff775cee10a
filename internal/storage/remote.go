// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/canonical/dashboard-auth-service/internal/db"
	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

var _ StoreInterface = (*RemoteStore)(nil)

// sessionSlotID is the fixed document id for the single session slot.
const sessionSlotID = "current"

// RemoteStore persists every collection as JSONB documents in a single
// table keyed by (collection, id).
type RemoteStore struct {
	db db.DBClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewRemoteStore(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *RemoteStore {
	s := new(RemoteStore)

	s.db = c

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

func (s *RemoteStore) insertDoc(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize %s document: %w", collection, err)
	}

	_, err = s.db.Statement(ctx).
		Insert("documents").
		Columns("collection", "id", "data", "created_at", "updated_at").
		Values(collection, id, raw, time.Now().UTC(), time.Now().UTC()).
		ExecContext(ctx)

	if err != nil {
		return WrapDuplicateKeyError(err, fmt.Sprintf("%s/%s", collection, id))
	}
	return nil
}

func (s *RemoteStore) upsertDoc(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize %s document: %w", collection, err)
	}

	_, err = s.db.Statement(ctx).
		Insert("documents").
		Columns("collection", "id", "data", "created_at", "updated_at").
		Values(collection, id, raw, time.Now().UTC(), time.Now().UTC()).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to upsert %s document: %w", collection, err)
	}
	return nil
}

func (s *RemoteStore) getDoc(ctx context.Context, collection, id string, out any) error {
	var raw []byte
	err := s.db.Statement(ctx).
		Select("data").
		From("documents").
		Where(sq.Eq{"collection": collection, "id": id}).
		QueryRowContext(ctx).
		Scan(&raw)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s document: %w", collection, err)
	}

	return json.Unmarshal(raw, out)
}

// getDocByField fetches the first document whose JSONB field equals value.
func (s *RemoteStore) getDocByField(ctx context.Context, collection, field, value string, out any) error {
	var raw []byte
	err := s.db.Statement(ctx).
		Select("data").
		From("documents").
		Where(sq.Eq{"collection": collection}).
		Where(sq.Expr("data->>? = ?", field, value)).
		OrderBy("created_at").
		Limit(1).
		QueryRowContext(ctx).
		Scan(&raw)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query %s documents: %w", collection, err)
	}

	return json.Unmarshal(raw, out)
}

func (s *RemoteStore) listDocs(ctx context.Context, collection string, filters ...sq.Sqlizer) ([][]byte, error) {
	query := s.db.Statement(ctx).
		Select("data").
		From("documents").
		Where(sq.Eq{"collection": collection}).
		OrderBy("created_at")

	for _, f := range filters {
		query = query.Where(f)
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", collection, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", collection, err)
		}
		out = append(out, raw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s documents: %w", collection, err)
	}

	return out, nil
}

func (s *RemoteStore) updateDoc(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize %s document: %w", collection, err)
	}

	res, err := s.db.Statement(ctx).
		Update("documents").
		Set("data", raw).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"collection": collection, "id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to update %s document: %w", collection, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *RemoteStore) deleteDoc(ctx context.Context, collection, id string) error {
	res, err := s.db.Statement(ctx).
		Delete("documents").
		Where(sq.Eq{"collection": collection, "id": id}).
		ExecContext(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete %s document: %w", collection, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *RemoteStore) CreateCompany(ctx context.Context, c *types.Company) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.CreateCompany")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate company ID: %w", err)
	}

	now := time.Now().UTC()
	created := *c
	created.ID = id.String()
	created.CreatedAt = now
	created.UpdatedAt = now

	// The code uniqueness check and the insert share a transaction.
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.GetCompanyByCode(ctx, c.Code); err == nil {
			return fmt.Errorf("company code %q: %w", c.Code, ErrDuplicateKey)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return s.insertDoc(ctx, CollectionCompanies, created.ID, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *RemoteStore) GetCompany(ctx context.Context, id string) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.GetCompany")
	defer span.End()

	var c types.Company
	if err := s.getDoc(ctx, CollectionCompanies, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *RemoteStore) GetCompanyByCode(ctx context.Context, code string) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.GetCompanyByCode")
	defer span.End()

	var c types.Company
	if err := s.getDocByField(ctx, CollectionCompanies, "code", code, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *RemoteStore) ListCompanies(ctx context.Context) ([]*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ListCompanies")
	defer span.End()

	raws, err := s.listDocs(ctx, CollectionCompanies)
	if err != nil {
		return nil, err
	}

	out := make([]*types.Company, 0, len(raws))
	for _, raw := range raws {
		var c types.Company
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("failed to parse company document: %w", err)
		}
		out = append(out, &c)
	}
	return out, nil
}

func (s *RemoteStore) UpdateCompany(ctx context.Context, c *types.Company) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.UpdateCompany")
	defer span.End()

	updated := *c
	updated.UpdatedAt = time.Now().UTC()
	return s.updateDoc(ctx, CollectionCompanies, c.ID, &updated)
}

func (s *RemoteStore) DeleteCompany(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.DeleteCompany")
	defer span.End()

	return s.deleteDoc(ctx, CollectionCompanies, id)
}

func (s *RemoteStore) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.CreateUser")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	now := time.Now().UTC()
	created := *u
	created.ID = id.String()
	created.CreatedAt = now
	created.UpdatedAt = now

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.GetUserByUsername(ctx, u.Username); err == nil {
			return fmt.Errorf("username %q: %w", u.Username, ErrDuplicateKey)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return s.insertDoc(ctx, CollectionUsers, created.ID, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *RemoteStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.GetUser")
	defer span.End()

	var u types.User
	if err := s.getDoc(ctx, CollectionUsers, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *RemoteStore) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.GetUserByUsername")
	defer span.End()

	var u types.User
	if err := s.getDocByField(ctx, CollectionUsers, "username", username, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *RemoteStore) ListUsers(ctx context.Context) ([]*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ListUsers")
	defer span.End()

	raws, err := s.listDocs(ctx, CollectionUsers)
	if err != nil {
		return nil, err
	}

	out := make([]*types.User, 0, len(raws))
	for _, raw := range raws {
		var u types.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("failed to parse user document: %w", err)
		}
		out = append(out, &u)
	}
	return out, nil
}

func (s *RemoteStore) UpdateUser(ctx context.Context, u *types.User) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.UpdateUser")
	defer span.End()

	updated := *u
	updated.UpdatedAt = time.Now().UTC()
	return s.updateDoc(ctx, CollectionUsers, u.ID, &updated)
}

func (s *RemoteStore) DeleteUser(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.DeleteUser")
	defer span.End()

	return s.deleteDoc(ctx, CollectionUsers, id)
}

func (s *RemoteStore) CreateDashboard(ctx context.Context, d *types.Dashboard) (*types.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.CreateDashboard")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate dashboard ID: %w", err)
	}

	now := time.Now().UTC()
	created := *d
	created.ID = id.String()
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.insertDoc(ctx, CollectionDashboards, created.ID, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *RemoteStore) GetDashboard(ctx context.Context, id string) (*types.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.GetDashboard")
	defer span.End()

	var d types.Dashboard
	if err := s.getDoc(ctx, CollectionDashboards, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *RemoteStore) ListDashboards(ctx context.Context) ([]*types.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ListDashboards")
	defer span.End()

	return s.listDashboards(ctx)
}

func (s *RemoteStore) ListDashboardsByCompany(ctx context.Context, companyID string) ([]*types.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ListDashboardsByCompany")
	defer span.End()

	return s.listDashboards(ctx, sq.Expr("data->>? = ?", "company_id", companyID))
}

func (s *RemoteStore) listDashboards(ctx context.Context, filters ...sq.Sqlizer) ([]*types.Dashboard, error) {
	raws, err := s.listDocs(ctx, CollectionDashboards, filters...)
	if err != nil {
		return nil, err
	}

	out := make([]*types.Dashboard, 0, len(raws))
	for _, raw := range raws {
		var d types.Dashboard
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("failed to parse dashboard document: %w", err)
		}
		out = append(out, &d)
	}
	return out, nil
}

func (s *RemoteStore) UpdateDashboard(ctx context.Context, d *types.Dashboard) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.UpdateDashboard")
	defer span.End()

	updated := *d
	updated.UpdatedAt = time.Now().UTC()
	return s.updateDoc(ctx, CollectionDashboards, d.ID, &updated)
}

func (s *RemoteStore) DeleteDashboard(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.DeleteDashboard")
	defer span.End()

	return s.deleteDoc(ctx, CollectionDashboards, id)
}

func (s *RemoteStore) UpsertRole(ctx context.Context, r *types.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.UpsertRole")
	defer span.End()

	now := time.Now().UTC()
	updated := *r
	if updated.CreatedAt.IsZero() {
		updated.CreatedAt = now
	}
	updated.UpdatedAt = now
	return s.upsertDoc(ctx, CollectionRoles, r.ID, &updated)
}

func (s *RemoteStore) GetRole(ctx context.Context, id string) (*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.GetRole")
	defer span.End()

	var r types.Role
	if err := s.getDoc(ctx, CollectionRoles, id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RemoteStore) ListRoles(ctx context.Context) ([]*types.Role, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ListRoles")
	defer span.End()

	raws, err := s.listDocs(ctx, CollectionRoles)
	if err != nil {
		return nil, err
	}

	out := make([]*types.Role, 0, len(raws))
	for _, raw := range raws {
		var r types.Role
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to parse role document: %w", err)
		}
		out = append(out, &r)
	}
	return out, nil
}

func (s *RemoteStore) UpsertPermission(ctx context.Context, p *types.Permission) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.UpsertPermission")
	defer span.End()

	now := time.Now().UTC()
	updated := *p
	if updated.CreatedAt.IsZero() {
		updated.CreatedAt = now
	}
	updated.UpdatedAt = now
	return s.upsertDoc(ctx, CollectionPermissions, p.ID, &updated)
}

func (s *RemoteStore) ListPermissions(ctx context.Context) ([]*types.Permission, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ListPermissions")
	defer span.End()

	raws, err := s.listDocs(ctx, CollectionPermissions)
	if err != nil {
		return nil, err
	}

	out := make([]*types.Permission, 0, len(raws))
	for _, raw := range raws {
		var p types.Permission
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to parse permission document: %w", err)
		}
		out = append(out, &p)
	}
	return out, nil
}

func (s *RemoteStore) GetSession(ctx context.Context) (*types.Session, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.GetSession")
	defer span.End()

	var sess types.Session
	if err := s.getDoc(ctx, CollectionSessions, sessionSlotID, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RemoteStore) PutSession(ctx context.Context, sess *types.Session) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.PutSession")
	defer span.End()

	return s.upsertDoc(ctx, CollectionSessions, sessionSlotID, sess)
}

func (s *RemoteStore) DeleteSession(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.DeleteSession")
	defer span.End()

	err := s.deleteDoc(ctx, CollectionSessions, sessionSlotID)
	if errors.Is(err, ErrNotFound) {
		// Logout with no active session is a no-op.
		return nil
	}
	return err
}

// ImportCompany writes a company under its existing id, preserving cross
// references from migrated users and dashboards.
func (s *RemoteStore) ImportCompany(ctx context.Context, c *types.Company) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ImportCompany")
	defer span.End()

	return s.upsertDoc(ctx, CollectionCompanies, c.ID, c)
}

func (s *RemoteStore) ImportUser(ctx context.Context, u *types.User) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ImportUser")
	defer span.End()

	return s.upsertDoc(ctx, CollectionUsers, u.ID, u)
}

func (s *RemoteStore) ImportDashboard(ctx context.Context, d *types.Dashboard) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ImportDashboard")
	defer span.End()

	return s.upsertDoc(ctx, CollectionDashboards, d.ID, d)
}

func (s *RemoteStore) AppendLog(ctx context.Context, activity, detail string) error {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.AppendLog")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate log ID: %w", err)
	}

	now := time.Now().UTC()
	entry := types.LogEntry{
		ID:        id.String(),
		Activity:  activity,
		Detail:    detail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.insertDoc(ctx, CollectionLogs, entry.ID, &entry)
}

func (s *RemoteStore) HasLogActivity(ctx context.Context, activity string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.HasLogActivity")
	defer span.End()

	var count int
	err := s.db.Statement(ctx).
		Select("COUNT(*)").
		From("documents").
		Where(sq.Eq{"collection": CollectionLogs}).
		Where(sq.Expr("data->>? = ?", "activity", activity)).
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to count log documents: %w", err)
	}
	return count > 0, nil
}

func (s *RemoteStore) ListLogs(ctx context.Context) ([]*types.LogEntry, error) {
	ctx, span := s.tracer.Start(ctx, "storage.RemoteStore.ListLogs")
	defer span.End()

	raws, err := s.listDocs(ctx, CollectionLogs)
	if err != nil {
		return nil, err
	}

	out := make([]*types.LogEntry, 0, len(raws))
	for _, raw := range raws {
		var l types.LogEntry
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("failed to parse log document: %w", err)
		}
		out = append(out, &l)
	}
	return out, nil
}
