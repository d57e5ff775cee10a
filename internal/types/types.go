// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// WildcardPermission grants every permission unconditionally.
const WildcardPermission = "*"

// SuperAdminRole is the role allowed to cross tenant boundaries. A user
// with a nil CompanyID is assumed to carry this role by convention.
const SuperAdminRole = "super_admin"

type CompanySettings struct {
	Theme    string `json:"theme,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

type Company struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Status       string          `json:"status"`
	Settings     CompanySettings `json:"settings"`
	ContactEmail string          `json:"contact_email,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	// Password is stored and compared as-is for compatibility with the
	// data this service inherited. See DESIGN.md before changing this.
	Password    string     `json:"password,omitempty"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions,omitempty"`
	CompanyID   *string    `json:"company_id"`
	Status      string     `json:"status"`
	Name        string     `json:"name,omitempty"`
	Department  string     `json:"department,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Sanitized returns a copy safe to hand to callers: the credential field
// is blanked.
func (u *User) Sanitized() *User {
	c := *u
	c.Password = ""
	return &c
}

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	Level       int       `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Permission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Dashboard struct {
	ID                  string    `json:"id"`
	File                string    `json:"file"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	Category            string    `json:"category,omitempty"`
	Icon                string    `json:"icon,omitempty"`
	Status              string    `json:"status"`
	CompanyID           string    `json:"company_id"`
	RequiredPermissions []string  `json:"required_permissions,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Session is the single-slot proof of authentication. Permissions are a
// snapshot captured at login; role edits do not affect issued sessions.
type Session struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	CompanyID    *string   `json:"company_id"`
	Token        string    `json:"token"`
	Permissions  []string  `json:"permissions"`
	LoginTime    time.Time `json:"login_time"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}

// HasWildcard reports whether the session's permission snapshot carries
// the universal grant.
func (s *Session) HasWildcard() bool {
	for _, p := range s.Permissions {
		if p == WildcardPermission {
			return true
		}
	}
	return false
}

type LogEntry struct {
	ID        string    `json:"id"`
	Activity  string    `json:"activity"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
