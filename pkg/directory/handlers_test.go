// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
)

func newTestAPI(t *testing.T, granted ...string) *chi.Mux {
	t.Helper()

	svc, _ := newTestDirectory(t, granted...)
	mux := chi.NewMux()
	NewAPI(svc, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger()).RegisterEndpoints(mux)
	return mux
}

func TestCreateCompanyEndpoint(t *testing.T) {
	mux := newTestAPI(t, "companies:manage")

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"code":"ACME","name":"Acme"}`, http.StatusCreated},
		{"validation failure", `{"code":"ACME"}`, http.StatusBadRequest},
		{"malformed body", `{"code":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v0/companies", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	// Duplicate code maps to 409.
	req := httptest.NewRequest(http.MethodPost, "/api/v0/companies", strings.NewReader(`{"code":"ACME","name":"Again"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestEndpointsReturn403WithoutPermission(t *testing.T) {
	mux := newTestAPI(t) // nothing granted

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v0/companies", ""},
		{http.MethodPost, "/api/v0/companies", `{"code":"ACME","name":"Acme"}`},
		{http.MethodGet, "/api/v0/users", ""},
		{http.MethodPost, "/api/v0/users", `{"username":"alice","password":"secret","role":"viewer"}`},
		{http.MethodPost, "/api/v0/dashboards", `{"file":"a.html","name":"A","company_id":"c1"}`},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tt.method, tt.path, rec.Code)
		}

		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if body.Success {
			t.Fatal("expected success=false")
		}
	}
}

func TestCreateUserEndpointBlanksPassword(t *testing.T) {
	mux := newTestAPI(t, "users:manage")

	req := httptest.NewRequest(http.MethodPost, "/api/v0/users", strings.NewReader(`{"username":"alice","password":"secret","role":"viewer"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatal("response leaked the password")
	}
}
