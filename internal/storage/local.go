// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

var _ StoreInterface = (*LocalStore)(nil)

// blob is the single JSON document the local backend persists. It mirrors
// the flat layout the dashboards kept in browser storage: every collection
// under one key, the session slot under another.
type blob struct {
	Companies   []*types.Company    `json:"companies"`
	Users       []*types.User       `json:"users"`
	Dashboards  []*types.Dashboard  `json:"dashboards"`
	Roles       []*types.Role       `json:"roles"`
	Permissions []*types.Permission `json:"permissions"`
	Logs        []*types.LogEntry   `json:"logs"`
	Session     *types.Session      `json:"session,omitempty"`
}

// LocalStore keeps all collections in one JSON blob on disk, rewritten on
// every mutation. Read-modify-write under a single mutex, last writer
// wins; this backend is meant for single-instance deployments.
type LocalStore struct {
	mu   sync.Mutex
	path string
	data blob

	logger logging.LoggerInterface
}

// NewLocalStore loads the blob at path, starting empty if the file does
// not exist yet. An empty path keeps the store memory-only.
func NewLocalStore(path string, logger logging.LoggerInterface) (*LocalStore, error) {
	s := &LocalStore{
		path:   path,
		logger: logger,
	}

	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read local store: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse local store: %w", err)
	}

	return s, nil
}

// IsEmpty reports whether the blob holds no entity data yet. Used by the
// backend selector to decide whether to seed defaults.
func (s *LocalStore) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.data.Companies) == 0 && len(s.data.Users) == 0 &&
		len(s.data.Dashboards) == 0 && len(s.data.Roles) == 0
}

// persist must be called with the mutex held.
func (s *LocalStore) persist() error {
	if s.path == "" {
		return nil
	}

	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize local store: %w", err)
	}

	// Write to a temp file first so a crash mid-write never leaves a
	// truncated blob behind.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace local store: %w", err)
	}

	return nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return id.String(), nil
}

func (s *LocalStore) CreateCompany(ctx context.Context, c *types.Company) (*types.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Companies {
		if existing.Code == c.Code {
			return nil, fmt.Errorf("company code %q: %w", c.Code, ErrDuplicateKey)
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *c
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now

	s.data.Companies = append(s.data.Companies, &created)
	if err := s.persist(); err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *LocalStore) GetCompany(ctx context.Context, id string) (*types.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.data.Companies {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) GetCompanyByCode(ctx context.Context, code string) (*types.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.data.Companies {
		if c.Code == code {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) ListCompanies(ctx context.Context) ([]*types.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Company, 0, len(s.data.Companies))
	for _, c := range s.data.Companies {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (s *LocalStore) UpdateCompany(ctx context.Context, c *types.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data.Companies {
		if existing.ID == c.ID {
			updated := *c
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = time.Now().UTC()
			s.data.Companies[i] = &updated
			return s.persist()
		}
	}
	return ErrNotFound
}

func (s *LocalStore) DeleteCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data.Companies {
		if existing.ID == id {
			s.data.Companies = append(s.data.Companies[:i], s.data.Companies[i+1:]...)
			return s.persist()
		}
	}
	return ErrNotFound
}

func (s *LocalStore) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Users {
		if existing.Username == u.Username {
			return nil, fmt.Errorf("username %q: %w", u.Username, ErrDuplicateKey)
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *u
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now

	s.data.Users = append(s.data.Users, &created)
	if err := s.persist(); err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *LocalStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.data.Users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.data.Users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) ListUsers(ctx context.Context) ([]*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.User, 0, len(s.data.Users))
	for _, u := range s.data.Users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (s *LocalStore) UpdateUser(ctx context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data.Users {
		if existing.ID == u.ID {
			updated := *u
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = time.Now().UTC()
			s.data.Users[i] = &updated
			return s.persist()
		}
	}
	return ErrNotFound
}

func (s *LocalStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data.Users {
		if existing.ID == id {
			s.data.Users = append(s.data.Users[:i], s.data.Users[i+1:]...)
			return s.persist()
		}
	}
	return ErrNotFound
}

func (s *LocalStore) CreateDashboard(ctx context.Context, d *types.Dashboard) (*types.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *d
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now

	s.data.Dashboards = append(s.data.Dashboards, &created)
	if err := s.persist(); err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *LocalStore) GetDashboard(ctx context.Context, id string) (*types.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.data.Dashboards {
		if d.ID == id {
			copied := *d
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) ListDashboards(ctx context.Context) ([]*types.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Dashboard, 0, len(s.data.Dashboards))
	for _, d := range s.data.Dashboards {
		copied := *d
		out = append(out, &copied)
	}
	return out, nil
}

func (s *LocalStore) ListDashboardsByCompany(ctx context.Context, companyID string) ([]*types.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.Dashboard
	for _, d := range s.data.Dashboards {
		if d.CompanyID == companyID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *LocalStore) UpdateDashboard(ctx context.Context, d *types.Dashboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data.Dashboards {
		if existing.ID == d.ID {
			updated := *d
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = time.Now().UTC()
			s.data.Dashboards[i] = &updated
			return s.persist()
		}
	}
	return ErrNotFound
}

func (s *LocalStore) DeleteDashboard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.data.Dashboards {
		if existing.ID == id {
			s.data.Dashboards = append(s.data.Dashboards[:i], s.data.Dashboards[i+1:]...)
			return s.persist()
		}
	}
	return ErrNotFound
}

func (s *LocalStore) UpsertRole(ctx context.Context, r *types.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for i, existing := range s.data.Roles {
		if existing.ID == r.ID {
			updated := *r
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = now
			s.data.Roles[i] = &updated
			return s.persist()
		}
	}

	created := *r
	created.CreatedAt = now
	created.UpdatedAt = now
	s.data.Roles = append(s.data.Roles, &created)
	return s.persist()
}

func (s *LocalStore) GetRole(ctx context.Context, id string) (*types.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.data.Roles {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) ListRoles(ctx context.Context) ([]*types.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Role, 0, len(s.data.Roles))
	for _, r := range s.data.Roles {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (s *LocalStore) UpsertPermission(ctx context.Context, p *types.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for i, existing := range s.data.Permissions {
		if existing.ID == p.ID {
			updated := *p
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = now
			s.data.Permissions[i] = &updated
			return s.persist()
		}
	}

	created := *p
	created.CreatedAt = now
	created.UpdatedAt = now
	s.data.Permissions = append(s.data.Permissions, &created)
	return s.persist()
}

func (s *LocalStore) ListPermissions(ctx context.Context) ([]*types.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Permission, 0, len(s.data.Permissions))
	for _, p := range s.data.Permissions {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (s *LocalStore) GetSession(ctx context.Context) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Session == nil {
		return nil, ErrNotFound
	}
	copied := *s.data.Session
	return &copied, nil
}

func (s *LocalStore) PutSession(ctx context.Context, sess *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sess
	s.data.Session = &copied
	return s.persist()
}

func (s *LocalStore) DeleteSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Session == nil {
		return nil
	}
	s.data.Session = nil
	return s.persist()
}

func (s *LocalStore) ImportCompany(ctx context.Context, c *types.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *c
	for i, existing := range s.data.Companies {
		if existing.ID == c.ID {
			s.data.Companies[i] = &copied
			return s.persist()
		}
	}
	s.data.Companies = append(s.data.Companies, &copied)
	return s.persist()
}

func (s *LocalStore) ImportUser(ctx context.Context, u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *u
	for i, existing := range s.data.Users {
		if existing.ID == u.ID {
			s.data.Users[i] = &copied
			return s.persist()
		}
	}
	s.data.Users = append(s.data.Users, &copied)
	return s.persist()
}

func (s *LocalStore) ImportDashboard(ctx context.Context, d *types.Dashboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *d
	for i, existing := range s.data.Dashboards {
		if existing.ID == d.ID {
			s.data.Dashboards[i] = &copied
			return s.persist()
		}
	}
	s.data.Dashboards = append(s.data.Dashboards, &copied)
	return s.persist()
}

func (s *LocalStore) AppendLog(ctx context.Context, activity, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := newID()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	s.data.Logs = append(s.data.Logs, &types.LogEntry{
		ID:        id,
		Activity:  activity,
		Detail:    detail,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return s.persist()
}

func (s *LocalStore) HasLogActivity(ctx context.Context, activity string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.data.Logs {
		if l.Activity == activity {
			return true, nil
		}
	}
	return false, nil
}

func (s *LocalStore) ListLogs(ctx context.Context) ([]*types.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.LogEntry, 0, len(s.data.Logs))
	for _, l := range s.data.Logs {
		copied := *l
		out = append(out, &copied)
	}
	return out, nil
}
