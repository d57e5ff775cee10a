// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/dashboard-auth-service/internal/config"
	"github.com/canonical/dashboard-auth-service/internal/db"
	"github.com/canonical/dashboard-auth-service/internal/logging"
	"github.com/canonical/dashboard-auth-service/internal/monitoring/prometheus"
	"github.com/canonical/dashboard-auth-service/internal/storage"
	"github.com/canonical/dashboard-auth-service/internal/tracing"
	"github.com/canonical/dashboard-auth-service/pkg/authorization"
	"github.com/canonical/dashboard-auth-service/pkg/directory"
	"github.com/canonical/dashboard-auth-service/pkg/guard"
	"github.com/canonical/dashboard-auth-service/pkg/session"
	"github.com/canonical/dashboard-auth-service/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("dashboard-auth-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	ctx := context.Background()

	// The local backend always loads: it is either the selected backend
	// or the source for the one-time copy to the remote one.
	local, err := storage.NewLocalStore(specs.LocalStorePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open local store: %v", err)
	}

	var remote storage.StoreInterface
	if specs.DSN != "" {
		dbConfig := db.Config{
			DSN:             specs.DSN,
			MaxConns:        specs.DBMaxConns,
			MinConns:        specs.DBMinConns,
			MaxConnLifetime: specs.DBMaxConnLifetime,
			MaxConnIdleTime: specs.DBMaxConnIdleTime,
			TracingEnabled:  specs.TracingEnabled,
		}
		dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
		if err != nil {
			return fmt.Errorf("failed to create database client: %v", err)
		}
		defer dbClient.Close()

		remoteStore := storage.NewRemoteStore(dbClient, tracer, monitor, logger)
		if err := storage.NewMigrator(local, remoteStore, tracer, monitor, logger).Run(ctx); err != nil {
			return fmt.Errorf("failed to migrate local data: %v", err)
		}
		remote = remoteStore
	}

	store, err := storage.NewHybridStore(ctx, remote, local, logger)
	if err != nil {
		return fmt.Errorf("failed to select storage backend: %v", err)
	}

	sessions := session.NewService(store, specs.SessionLifetime, tracer, monitor, logger)
	resolver := authorization.NewResolver(sessions, store, nil, tracer, monitor, logger)
	pageGuard := guard.NewGuard(sessions, resolver, specs.LoginPath, specs.UnauthorizedPath, tracer, monitor, logger)
	dirService := directory.NewService(store, resolver, tracer, monitor, logger)

	watchdogCtx, stopWatchdog := context.WithCancel(ctx)
	defer stopWatchdog()
	go guard.NewWatchdog(sessions, specs.LivenessInterval, specs.InactivityTimeout, logger).Run(watchdogCtx)

	router := web.NewRouter(
		store.Backend(),
		sessions,
		resolver,
		pageGuard,
		dirService,
		specs.CORSAllowedOrigins,
		specs.StaticDir,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c
	stopWatchdog()

	// Create a deadline to wait for.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}
