// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

// ErrPermissionDenied is returned when the current session lacks the
// permission an operation requires. The store is never touched in that
// case.
var ErrPermissionDenied = errors.New("permission denied")

// CompanyPayload is the write shape for tenants.
type CompanyPayload struct {
	Code         string `json:"code" validate:"required,min=2,max=32"`
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`

	Settings types.CompanySettings `json:"settings"`
}

// UserPayload is the write shape for accounts.
type UserPayload struct {
	Username    string   `json:"username" validate:"required,min=2,max=64"`
	Password    string   `json:"password" validate:"required,min=4"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Role        string   `json:"role" validate:"required"`
	Permissions []string `json:"permissions"`
	CompanyID   *string  `json:"company_id"`
	Status      string   `json:"status" validate:"omitempty,oneof=active inactive"`
	Name        string   `json:"name"`
	Department  string   `json:"department"`
	Avatar      string   `json:"avatar"`
}

// DashboardPayload is the write shape for dashboards.
type DashboardPayload struct {
	File                string   `json:"file" validate:"required"`
	Name                string   `json:"name" validate:"required"`
	Description         string   `json:"description"`
	Category            string   `json:"category"`
	Icon                string   `json:"icon"`
	Status              string   `json:"status" validate:"omitempty,oneof=active inactive"`
	CompanyID           string   `json:"company_id" validate:"required"`
	RequiredPermissions []string `json:"required_permissions"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	authz    AuthzInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	authz AuthzInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		authz:    authz,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// requirePermission is the gate in front of every operation. It fires
// before validation results are acted on and before any store access.
func (s *Service) requirePermission(ctx context.Context, permission string) error {
	ok, err := s.authz.HasPermission(ctx, permission)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !ok {
		s.logger.Security().AuthzFailure("current session", permission)
		return fmt.Errorf("%s: %w", permission, ErrPermissionDenied)
	}
	return nil
}

func (s *Service) CreateCompany(ctx context.Context, payload *CompanyPayload) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.CreateCompany")
	defer span.End()

	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, "companies:manage"); err != nil {
		return nil, err
	}

	status := payload.Status
	if status == "" {
		status = types.StatusActive
	}

	return s.storage.CreateCompany(ctx, &types.Company{
		Code:         payload.Code,
		Name:         payload.Name,
		Description:  payload.Description,
		Status:       status,
		Settings:     payload.Settings,
		ContactEmail: payload.ContactEmail,
	})
}

func (s *Service) ListCompanies(ctx context.Context) ([]*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.ListCompanies")
	defer span.End()

	if err := s.requirePermission(ctx, "companies:view"); err != nil {
		return nil, err
	}
	return s.storage.ListCompanies(ctx)
}

func (s *Service) UpdateCompany(ctx context.Context, id string, payload *CompanyPayload) (*types.Company, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.UpdateCompany")
	defer span.End()

	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, "companies:manage"); err != nil {
		return nil, err
	}

	existing, err := s.storage.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Code = payload.Code
	existing.Name = payload.Name
	existing.Description = payload.Description
	existing.ContactEmail = payload.ContactEmail
	existing.Settings = payload.Settings
	if payload.Status != "" {
		existing.Status = payload.Status
	}

	if err := s.storage.UpdateCompany(ctx, existing); err != nil {
		return nil, err
	}
	return s.storage.GetCompany(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, payload *UserPayload) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.CreateUser")
	defer span.End()

	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, "users:manage"); err != nil {
		return nil, err
	}

	status := payload.Status
	if status == "" {
		status = types.StatusActive
	}

	created, err := s.storage.CreateUser(ctx, &types.User{
		Username:    payload.Username,
		Password:    payload.Password,
		Email:       payload.Email,
		Role:        payload.Role,
		Permissions: payload.Permissions,
		CompanyID:   payload.CompanyID,
		Status:      status,
		Name:        payload.Name,
		Department:  payload.Department,
		Avatar:      payload.Avatar,
	})
	if err != nil {
		return nil, err
	}
	return created.Sanitized(), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.ListUsers")
	defer span.End()

	if err := s.requirePermission(ctx, "users:view"); err != nil {
		return nil, err
	}

	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*types.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, payload *UserPayload) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.UpdateUser")
	defer span.End()

	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, "users:manage"); err != nil {
		return nil, err
	}

	existing, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Username = payload.Username
	existing.Password = payload.Password
	existing.Email = payload.Email
	existing.Role = payload.Role
	existing.Permissions = payload.Permissions
	existing.CompanyID = payload.CompanyID
	existing.Name = payload.Name
	existing.Department = payload.Department
	existing.Avatar = payload.Avatar
	if payload.Status != "" {
		existing.Status = payload.Status
	}

	if err := s.storage.UpdateUser(ctx, existing); err != nil {
		return nil, err
	}

	updated, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

func (s *Service) CreateDashboard(ctx context.Context, payload *DashboardPayload) (*types.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.CreateDashboard")
	defer span.End()

	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, "dashboard:manage"); err != nil {
		return nil, err
	}

	status := payload.Status
	if status == "" {
		status = types.StatusActive
	}

	return s.storage.CreateDashboard(ctx, &types.Dashboard{
		File:                payload.File,
		Name:                payload.Name,
		Description:         payload.Description,
		Category:            payload.Category,
		Icon:                payload.Icon,
		Status:              status,
		CompanyID:           payload.CompanyID,
		RequiredPermissions: payload.RequiredPermissions,
	})
}

func (s *Service) UpdateDashboard(ctx context.Context, id string, payload *DashboardPayload) (*types.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "directory.Service.UpdateDashboard")
	defer span.End()

	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	if err := s.requirePermission(ctx, "dashboard:manage"); err != nil {
		return nil, err
	}

	existing, err := s.storage.GetDashboard(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.File = payload.File
	existing.Name = payload.Name
	existing.Description = payload.Description
	existing.Category = payload.Category
	existing.Icon = payload.Icon
	existing.CompanyID = payload.CompanyID
	existing.RequiredPermissions = payload.RequiredPermissions
	if payload.Status != "" {
		existing.Status = payload.Status
	}

	if err := s.storage.UpdateDashboard(ctx, existing); err != nil {
		return nil, err
	}
	return s.storage.GetDashboard(ctx, id)
}
