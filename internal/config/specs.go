// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"false"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	// DSN selects the remote document store backend. When empty the
	// service runs on the local JSON blob backend.
	DSN string `envconfig:"dsn"`

	// LocalStorePath is where the local backend keeps its blob.
	LocalStorePath string `envconfig:"local_store_path" default:"dashboard-auth.json"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	SessionLifetime   time.Duration `envconfig:"session_lifetime" default:"24h"`
	InactivityTimeout time.Duration `envconfig:"inactivity_timeout" default:"30m"`
	LivenessInterval  time.Duration `envconfig:"liveness_interval" default:"5m"`

	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins" default:"*"`

	LoginPath        string `envconfig:"login_path" default:"/login.html"`
	UnauthorizedPath string `envconfig:"unauthorized_path" default:"/unauthorized.html"`

	// StaticDir serves the dashboard pages when set. The route guard
	// applies to everything under it.
	StaticDir string `envconfig:"static_dir"`
}
