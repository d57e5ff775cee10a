// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/storage"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/pkg/session"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
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

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/companies", a.listCompanies)
	mux.Post("/api/v0/companies", a.createCompany)
	mux.Put("/api/v0/companies/{id}", a.updateCompany)

	mux.Get("/api/v0/users", a.listUsers)
	mux.Post("/api/v0/users", a.createUser)
	mux.Put("/api/v0/users/{id}", a.updateUser)

	mux.Post("/api/v0/dashboards", a.createDashboard)
	mux.Put("/api/v0/dashboards/{id}", a.updateDashboard)
}

func (a *API) listCompanies(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.listCompanies")
	defer span.End()

	companies, err := a.service.ListCompanies(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: companies})
}

func (a *API) createCompany(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.createCompany")
	defer span.End()

	var payload CompanyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return
	}

	company, err := a.service.CreateCompany(ctx, &payload)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.logger.Infof("company %s created by %s", company.ID, a.actor(r))
	a.writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: company})
}

func (a *API) updateCompany(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.updateCompany")
	defer span.End()

	var payload CompanyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return
	}

	company, err := a.service.UpdateCompany(ctx, chi.URLParam(r, "id"), &payload)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: company})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.listUsers")
	defer span.End()

	users, err := a.service.ListUsers(ctx)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: users})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.createUser")
	defer span.End()

	var payload UserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return
	}

	user, err := a.service.CreateUser(ctx, &payload)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.logger.Infof("user %s created by %s", user.ID, a.actor(r))
	a.writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: user})
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.updateUser")
	defer span.End()

	var payload UserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return
	}

	user, err := a.service.UpdateUser(ctx, chi.URLParam(r, "id"), &payload)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: user})
}

func (a *API) createDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.createDashboard")
	defer span.End()

	var payload DashboardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return
	}

	dashboard, err := a.service.CreateDashboard(ctx, &payload)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.logger.Infof("dashboard %s created by %s", dashboard.ID, a.actor(r))
	a.writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: dashboard})
}

func (a *API) updateDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "directory.API.updateDashboard")
	defer span.End()

	var payload DashboardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return
	}

	dashboard, err := a.service.UpdateDashboard(ctx, chi.URLParam(r, "id"), &payload)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: dashboard})
}

// actor names the user behind the request for audit log lines. The
// session middleware puts it on the context.
func (a *API) actor(r *http.Request) string {
	if sess, ok := session.GetSession(r.Context()); ok {
		return sess.UserID
	}
	return "unknown"
}

// writeError maps service errors to the wire: validation failures and
// duplicates are client errors, permission denials are 403, missing
// records are 404, anything else is a 500 after logging.
func (a *API) writeError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: validationErrs.Error()})
	case errors.Is(err, ErrPermissionDenied):
		a.writeJSON(w, http.StatusForbidden, errorResponse{Success: false, Message: "permission denied"})
	case errors.Is(err, storage.ErrDuplicateKey):
		a.writeJSON(w, http.StatusConflict, errorResponse{Success: false, Message: "duplicate key"})
	case errors.Is(err, storage.ErrNotFound):
		a.writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Message: "not found"})
	default:
		a.logger.Errorf("request failed: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Message: "internal server error"})
	}
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}
