// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/beaconauth/beacon/internal/auth"
	authpg "github.com/beaconauth/beacon/internal/auth/postgres"
	"github.com/beaconauth/beacon/internal/config"
	"github.com/beaconauth/beacon/internal/httpapi"
	"github.com/beaconauth/beacon/internal/logging"
	"github.com/beaconauth/beacon/internal/observability"
	"github.com/beaconauth/beacon/internal/store"
)

// sweepInterval is how often expired sessions are purged.
const sweepInterval = time.Hour

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication HTTP service",
		Long: `Start the HTTP service that handles registration, sign-in, sign-out,
and session introspection.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory opens the database pool. Default: store.Open
	PoolFactory func(ctx context.Context, url string) (*pgxpool.Pool, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) *observability.Server
}

// runServeWithDeps starts the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.PoolFactory == nil {
		deps.PoolFactory = store.Open
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = observability.NewServer
	}

	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
	}

	logging.SetDefault("beacon", version, cfg.Log.Format, cfg.Log.Level)

	slog.Info("starting auth service",
		"addr", cfg.Server.Addr,
		"log_format", cfg.Log.Format,
	)

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	hasher, err := auth.NewHasher(cfg.Auth.PasswordHash)
	if err != nil {
		return err
	}

	accounts := authpg.NewAccountRepository(pool)
	sessions := authpg.NewSessionRepository(pool)

	registration, err := auth.NewRegistrationServiceWithLogger(accounts, hasher, slog.Default())
	if err != nil {
		return err
	}
	registration.SetRegistrationEnabled(cfg.Auth.RegistrationEnabled)

	authSvc, err := auth.NewAuthServiceWithLogger(accounts, sessions, hasher, slog.Default())
	if err != nil {
		return err
	}
	authSvc.SetSessionExpiry(cfg.Session.TTL)

	api, err := httpapi.NewAPIWithLogger(registration, authSvc, httpapi.Options{
		CookieName:      cfg.Session.CookieName,
		CookieSecure:    cfg.Session.CookieSecure,
		AnonymousDomain: cfg.Auth.AnonymousDomain,
	}, slog.Default())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured. Readiness tracks the
	// database connection.
	var obsServer *observability.Server
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		api.SetMetrics(obsServer.Metrics())

		obsErrChan, obsErr := obsServer.Start()
		if obsErr != nil {
			return oops.With("operation", "start observability server").Wrap(obsErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	apiServer := httpapi.NewServer(cfg.Server.Addr, api.Routes())
	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopObservability(obsServer)
		return oops.With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	// Purge expired sessions periodically.
	go runSessionSweeper(ctx, authSvc, obsServer)

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Auth service started")
	slog.Info("auth service ready", "addr", apiServer.Addr())

	// Wait for shutdown signal or server failure
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// runSessionSweeper deletes expired sessions on a fixed interval until the
// context is cancelled.
func runSessionSweeper(ctx context.Context, svc *auth.Service, obs *observability.Server) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepExpired(ctx)
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
				continue
			}
			if obs != nil && n > 0 {
				obs.Metrics().SessionsSweptTotal.Add(float64(n))
			}
		}
	}
}

// monitorServerErrors cancels the serve context when a background server
// reports an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errChan <-chan error, name string) {
	select {
	case <-ctx.Done():
	case err, ok := <-errChan:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	}
}

func stopObservability(obs *observability.Server) {
	if obs == nil {
		return
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := obs.Stop(shutdownCtx); err != nil {
		slog.Warn("failed to stop observability server during cleanup", "error", err)
	}
}
