// Package main is the entry point for the ventas BFF server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/andeantech/ventas-bff/internal/backend"
	"github.com/andeantech/ventas-bff/internal/catalog"
	"github.com/andeantech/ventas-bff/internal/config"
	"github.com/andeantech/ventas-bff/internal/contract"
	"github.com/andeantech/ventas-bff/internal/filter"
	"github.com/andeantech/ventas-bff/internal/form"
	"github.com/andeantech/ventas-bff/internal/notify"
	"github.com/andeantech/ventas-bff/internal/observability"
	"github.com/andeantech/ventas-bff/internal/report"
	"github.com/andeantech/ventas-bff/internal/transport"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "ventas-bff", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Verify the administration API contract before serving, when configured.
	apiContract := contract.New()
	if cfg.Contract.Enabled {
		if err := apiContract.LoadFile(ctx, cfg.Contract.SpecFile); err != nil {
			logger.Error("contract verification failed", zap.Error(err))
			return 1
		}
		logger.Info("administration API contract verified", zap.String("spec_file", cfg.Contract.SpecFile))
	}

	store, storeCloser, err := buildSessionStore(ctx, cfg.Sessions, logger)
	if err != nil {
		logger.Error("session store initialization failed", zap.Error(err))
		return 1
	}

	backendClient := backend.NewClient(cfg.Services)
	notifier := notify.NewLogNotifier(logger)
	catalogs := catalog.NewLoader(backendClient, notifier, logger, cfg.Catalogs)
	generator := report.NewClient(backendClient, cfg.Report)

	manager := form.NewManager(store, catalogs, generator, filter.NewValidator(), notifier, logger)

	jwks := transport.NewJWKSCache(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL, logger)

	readiness := observability.ReadinessChecks{
		ContractLoaded: func() bool { return !cfg.Contract.Enabled || apiContract.Loaded() },
	}
	if hc, ok := store.(observability.HealthChecker); ok {
		readiness.SessionStore = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Manager:      manager,
		Readiness:    readiness,
		Authenticate: transport.JWTAuthenticator(cfg.Identity, jwks),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()

	if cfg.Sessions.TTL > 0 {
		go runSessionSweeper(bgCtx, store, cfg.Sessions.TTL, logger)
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("session_store", cfg.Sessions.Store.Driver),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	bgCancel()

	if storeCloser != nil {
		storeCloser()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildSessionStore creates the session store based on config.
func buildSessionStore(ctx context.Context, cfg config.SessionsConfig, logger *zap.Logger) (form.Store, func(), error) {
	switch cfg.Store.Driver {
	case "memory", "":
		logger.Info("using in-memory session store")
		return form.NewMemoryStore(), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.Store.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("session store: %s environment variable not set", cfg.Store.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: parse DSN: %w", err)
		}
		if cfg.Store.MaxOpenConns > 0 {
			poolCfg.MaxConns = int32(cfg.Store.MaxOpenConns)
		}
		if cfg.Store.MaxIdleConns > 0 {
			poolCfg.MinConns = int32(cfg.Store.MaxIdleConns)
		}
		if cfg.Store.ConnMaxLifetime > 0 {
			poolCfg.MaxConnLifetime = cfg.Store.ConnMaxLifetime
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("session store: ping: %w", err)
		}

		store := form.NewPgStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("using PostgreSQL session store")
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session store driver: %q", cfg.Store.Driver)
	}
}

// runSessionSweeper periodically drops sessions idle for longer than the TTL.
func runSessionSweeper(ctx context.Context, store form.Store, ttl time.Duration, logger *zap.Logger) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteIdleBefore(ctx, time.Now().UTC().Add(-ttl))
			if err != nil {
				logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("idle sessions removed", zap.Int("count", removed))
			}
		}
	}
}
