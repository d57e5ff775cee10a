// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"

	"github.com/canonical/dashboard-auth-service/internal/types"
)

// StorageInterface is the slice of the credential store this package needs.
type StorageInterface interface {
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	UpdateUser(ctx context.Context, u *types.User) error
	GetCompany(ctx context.Context, id string) (*types.Company, error)
	GetRole(ctx context.Context, id string) (*types.Role, error)
	GetSession(ctx context.Context) (*types.Session, error)
	PutSession(ctx context.Context, s *types.Session) error
	DeleteSession(ctx context.Context) error
}

type ServiceInterface interface {
	Authenticate(ctx context.Context, username, password string) (*LoginResult, error)
	IsAuthenticated(ctx context.Context) (bool, error)
	CurrentSession(ctx context.Context) (*types.Session, error)
	CurrentUser(ctx context.Context) (*types.User, error)
	CurrentUserCompany(ctx context.Context) (*types.Company, error)
	Logout(ctx context.Context) error
	Touch(ctx context.Context) error
}
