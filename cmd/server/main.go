package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/addrconform/internal/config"
	"github.com/JonMunkholm/addrconform/internal/core"
	"github.com/JonMunkholm/addrconform/internal/core/streets"
	"github.com/JonMunkholm/addrconform/internal/logging"
	"github.com/JonMunkholm/addrconform/internal/objectstore"
	"github.com/JonMunkholm/addrconform/internal/runner"
	"github.com/JonMunkholm/addrconform/internal/store"
	"github.com/JonMunkholm/addrconform/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"workdir", cfg.Conform.Workdir,
		"max_concurrent", cfg.Conform.MaxConcurrent,
		"database", cfg.Database.URL != "",
		"storage", cfg.Storage.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	runs, closeStore, err := openRunStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open run store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var (
		publisher runner.Publisher
		outputs   web.OutputSource
	)
	if cfg.Storage.Enabled() {
		s3, err := objectstore.NewS3Store(objectstore.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			slog.Error("failed to create object store", "error", err)
			os.Exit(1)
		}
		publisher, outputs = s3, s3
		slog.Info("publishing outputs", "endpoint", cfg.Storage.Endpoint, "bucket", s3.Bucket())
	}

	expander, err := streets.NewExpander(cfg.Conform.StreetCacheSize)
	if err != nil {
		slog.Error("failed to create street expander", "error", err)
		os.Exit(1)
	}
	conformer := core.NewConformer(cfg.Conform.OGR2OGRPath, expander.Expand)

	limiter := runner.NewLimiter(cfg.Conform.MaxConcurrent, cfg.Conform.MaxWaitTime)
	run, err := runner.New(runner.Options{
		Store:     runs,
		Conformer: conformer,
		Limiter:   limiter,
		Publisher: publisher,
		Workdir:   cfg.Conform.Workdir,
		Timeout:   cfg.Conform.Timeout,
	})
	if err != nil {
		slog.Error("failed to create runner", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, run, runs, outputs)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Let queued and active runs record their outcome.
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
		}
		if err := run.Wait(shutdownCtx); err != nil {
			slog.Warn("runs did not complete in time", "error", err)
		}
		// Timed-out conversions keep their slot until they really stop.
		if err := limiter.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("conversions still running at exit", "active", limiter.ActiveCount())
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// openRunStore connects to Postgres when DATABASE_URL is set and falls
// back to in-memory history otherwise.
func openRunStore(ctx context.Context, cfg *config.Config) (store.RunStore, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("no database configured, keeping run history in memory")
		return store.NewMemoryStore(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, pg, err := store.Connect(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pg, pool.Close, nil
}
