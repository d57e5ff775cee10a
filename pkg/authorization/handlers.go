// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/internal/types"
	"github.com/canonical/dashboard-auth-service/pkg/session"
)

type dashboardsResponse struct {
	Success    bool               `json:"success"`
	Dashboards []*types.Dashboard `json:"dashboards"`
}

type accessResponse struct {
	Success bool `json:"success"`
	Allowed bool `json:"allowed"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type API struct {
	resolver ResolverInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewAPI(resolver ResolverInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		resolver: resolver,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/dashboards", a.listDashboards)
	mux.Get("/api/v0/dashboards/{id}/access", a.dashboardAccess)
}

// listDashboards returns the dashboards visible to the logged-in user:
// everything for a super admin, the user's tenant otherwise.
func (a *API) listDashboards(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authorization.API.listDashboards")
	defer span.End()

	dashboards, err := a.resolver.DashboardsForUser(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			a.writeJSON(w, http.StatusUnauthorized, errorResponse{Success: false, Message: "authentication required"})
			return
		}
		a.logger.Errorf("failed to list dashboards: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Message: "internal server error"})
		return
	}

	if dashboards == nil {
		dashboards = []*types.Dashboard{}
	}
	a.writeJSON(w, http.StatusOK, dashboardsResponse{Success: true, Dashboards: dashboards})
}

func (a *API) dashboardAccess(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "authorization.API.dashboardAccess")
	defer span.End()

	allowed, err := a.resolver.HasDashboardAccess(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.logger.Errorf("failed to check dashboard access: %v", err)
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Message: "internal server error"})
		return
	}
	a.writeJSON(w, http.StatusOK, accessResponse{Success: true, Allowed: allowed})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}
