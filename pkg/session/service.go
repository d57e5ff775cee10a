// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/storage"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

// ErrNoSession is returned by read operations when no active session
// exists, including when the stored session has lapsed.
var ErrNoSession = errors.New("no active session")

// invalidCredentialsMessage is deliberately uniform: the caller cannot
// tell an unknown username from a bad password or a disabled account.
const invalidCredentialsMessage = "invalid credentials"

type LoginResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    *types.User    `json:"user,omitempty"`
	Session *types.Session `json:"session,omitempty"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	lifetime time.Duration
	now      func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	lifetime time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		lifetime: lifetime,
		now:      time.Now,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.Authenticate")
	defer span.End()

	failed := &LoginResult{Success: false, Message: invalidCredentialsMessage}

	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Security().AuthFailure(username, "unknown username")
			return failed, nil
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Password != password {
		s.logger.Security().AuthFailure(username, "password mismatch")
		return failed, nil
	}

	if user.Status != types.StatusActive {
		s.logger.Security().AuthFailure(username, "account not active")
		return failed, nil
	}

	token, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now().UTC()
	sess := &types.Session{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		CompanyID:    user.CompanyID,
		Token:        token.String(),
		Permissions:  s.effectivePermissions(ctx, user),
		LoginTime:    now,
		ExpiresAt:    now.Add(s.lifetime),
		LastActivity: now,
	}

	if err := s.storage.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	// Last-login stamping is best effort, a failed write must not undo
	// the login.
	stamped := *user
	stamped.LastLogin = &now
	if err := s.storage.UpdateUser(ctx, &stamped); err != nil {
		s.logger.Errorf("failed to stamp last login for %s: %v", username, err)
	}

	s.logger.Security().AuthSuccess(username)

	return &LoginResult{
		Success: true,
		Message: "login successful",
		User:    stamped.Sanitized(),
		Session: sess,
	}, nil
}

// effectivePermissions snapshots the union of the role's permissions and
// the user's direct grants. The snapshot is frozen for the session's
// lifetime.
func (s *Service) effectivePermissions(ctx context.Context, user *types.User) []string {
	seen := make(map[string]bool)
	var out []string

	role, err := s.storage.GetRole(ctx, user.Role)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Errorf("failed to load role %s: %v", user.Role, err)
		}
	} else {
		for _, p := range role.Permissions {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	for _, p := range user.Permissions {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	return out
}

// activeSession loads the session slot, evaluating expiry lazily: a
// lapsed session is deleted on read and reported as ErrNoSession.
func (s *Service) activeSession(ctx context.Context) (*types.Session, error) {
	sess, err := s.storage.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	// A session is expired only strictly past its deadline; a read at
	// exactly expires_at still succeeds.
	if s.now().UTC().After(sess.ExpiresAt) {
		s.logger.Security().SessionExpired(sess.Username)
		if err := s.storage.DeleteSession(ctx); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, ErrNoSession
	}

	return sess, nil
}

func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.IsAuthenticated")
	defer span.End()

	_, err := s.activeSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) CurrentSession(ctx context.Context) (*types.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.CurrentSession")
	defer span.End()

	return s.activeSession(ctx)
}

func (s *Service) CurrentUser(ctx context.Context) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.CurrentUser")
	defer span.End()

	sess, err := s.activeSession(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session user: %w", err)
	}
	return user.Sanitized(), nil
}

// CurrentUserCompany returns the tenant of the logged-in user. A nil
// company with a nil error means the user is not bound to any tenant.
func (s *Service) CurrentUserCompany(ctx context.Context) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "session.Service.CurrentUserCompany")
	defer span.End()

	sess, err := s.activeSession(ctx)
	if err != nil {
		return nil, err
	}

	if sess.CompanyID == nil {
		return nil, nil
	}

	company, err := s.storage.GetCompany(ctx, *sess.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session company: %w", err)
	}
	return company, nil
}

// Logout clears the session slot. Calling it with no active session is
// not an error.
func (s *Service) Logout(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.Service.Logout")
	defer span.End()

	return s.storage.DeleteSession(ctx)
}

// Touch records activity on the session for the inactivity watchdog.
func (s *Service) Touch(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.Service.Touch")
	defer span.End()

	sess, err := s.activeSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}

	sess.LastActivity = s.now().UTC()
	return s.storage.PutSession(ctx, sess)
}
