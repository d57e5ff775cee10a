// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import "net/http"

type GuardInterface interface {
	Middleware() func(http.Handler) http.Handler
	RequireAuth(next http.Handler) http.Handler
	RequirePermission(permission string, next http.Handler) http.Handler
	RequireRole(role string, next http.Handler) http.Handler
}
