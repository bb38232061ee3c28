package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/jrmonge/recordhub/internal/auth"
	"github.com/jrmonge/recordhub/internal/config"
	"github.com/jrmonge/recordhub/internal/logging"
	"github.com/jrmonge/recordhub/internal/store"
	"github.com/jrmonge/recordhub/internal/transfer"
	"github.com/jrmonge/recordhub/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"auth_provider", cfg.Auth.Provider,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	gateway, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	provider, err := buildAuth(cfg)
	if err != nil {
		slog.Error("failed to configure authentication", "error", err)
		os.Exit(1)
	}

	// The transfer pipeline needs the extraction service; without an
	// endpoint the import/export routes answer 503.
	var importer *transfer.Importer
	var exporter *transfer.Exporter
	if cfg.Extraction.Endpoint != "" {
		extractor := transfer.NewClient(cfg.Extraction.Endpoint, cfg.Extraction.Timeout)
		picker := transfer.DirPicker{Dir: cfg.Transfer.PickDir}
		cache := transfer.CacheDir{Dir: cfg.Transfer.CacheDir}
		importer = transfer.NewImporter(picker, extractor, gateway, slog.Default())
		exporter = transfer.NewExporter(gateway, cache, cache, slog.Default())
		slog.Info("transfer pipeline enabled", "endpoint", cfg.Extraction.Endpoint)
	} else {
		slog.Info("transfer pipeline disabled: EXTRACTION_ENDPOINT not set")
	}

	server := web.NewServer(cfg, gateway, provider, importer, exporter)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// buildStore opens the configured store backend. The returned cleanup func
// releases backend resources; for the in-memory backend it is a no-op.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if strings.ToLower(cfg.Store.Backend) != "postgres" {
		return store.NewTreeStore(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Store.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Store.MaxConns)
	poolConfig.MinConns = int32(cfg.Store.MinConns)
	poolConfig.MaxConnLifetime = cfg.Store.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Store.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Store.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	ds := store.NewDocumentStore(pool)
	if err := ds.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return ds, pool.Close, nil
}

// buildAuth selects the sign-in provider. The local provider starts with an
// empty user table; accounts are provisioned out of band.
func buildAuth(cfg *config.Config) (auth.Provider, error) {
	if strings.ToLower(cfg.Auth.Provider) == "rest" {
		return auth.NewRESTProvider(cfg.Auth.Endpoint, cfg.Auth.APIKey, cfg.Auth.Timeout), nil
	}

	provider := auth.NewLocalProvider()
	if email := os.Getenv("AUTH_BOOTSTRAP_EMAIL"); email != "" {
		if err := provider.AddUser(email, os.Getenv("AUTH_BOOTSTRAP_PASSWORD")); err != nil {
			return nil, err
		}
		slog.Info("bootstrap account provisioned", "email", email)
	}
	return provider, nil
}
