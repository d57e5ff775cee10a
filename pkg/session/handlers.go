// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type userResponse struct {
	Success bool        `json:"success"`
	User    *types.User `json:"user,omitempty"`
}

type companyResponse struct {
	Success bool           `json:"success"`
	Company *types.Company `json:"company"`
}

type API struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/auth/login", a.login)
	mux.Post("/api/v0/auth/logout", a.logout)
	mux.Get("/api/v0/auth/me", a.me)
	mux.Get("/api/v0/auth/company", a.company)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.login")
	defer span.End()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		a.writeJSON(w, http.StatusBadRequest, messageResponse{Success: false, Message: "username and password are required"})
		return
	}

	result, err := a.service.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		a.logger.Errorf("authentication failed: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "internal server error"})
		return
	}

	if !result.Success {
		a.writeJSON(w, http.StatusUnauthorized, result)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.logout")
	defer span.End()

	if err := a.service.Logout(ctx); err != nil {
		a.logger.Errorf("logout failed: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "internal server error"})
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "logged out"})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.me")
	defer span.End()

	user, err := a.service.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			a.writeJSON(w, http.StatusUnauthorized, messageResponse{Success: false, Message: "authentication required"})
			return
		}
		a.logger.Errorf("failed to resolve current user: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "internal server error"})
		return
	}
	a.writeJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}

func (a *API) company(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "session.API.company")
	defer span.End()

	company, err := a.service.CurrentUserCompany(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			a.writeJSON(w, http.StatusUnauthorized, messageResponse{Success: false, Message: "authentication required"})
			return
		}
		a.logger.Errorf("failed to resolve current company: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, messageResponse{Success: false, Message: "internal server error"})
		return
	}

	// Company is null for users not bound to a tenant.
	a.writeJSON(w, http.StatusOK, companyResponse{Success: true, Company: company})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}
