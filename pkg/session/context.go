// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"

	"github.com/canonical/dashboard-auth-service/internal/types"
)

// Define a private custom type to avoid collisions
type contextKey struct{}

var sessionContextKey = contextKey{}

// WithSession returns a new context carrying the given session.
func WithSession(ctx context.Context, s *types.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// GetSession retrieves the session from the context.
// Returns nil and false if no session is present.
func GetSession(ctx context.Context) (*types.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*types.Session)
	return s, ok
}
