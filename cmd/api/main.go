// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Api is the entry point for the inkvault HTTP API server.

The server ingests novel text from upstream reading-platform providers,
stores it durably, and serves it to readers alongside EPUB/TXT export and
cross-device reading progress.

Usage:

	go run cmd/api/main.go [flags]

The flags/environment variables are:

	SERVER_PORT     Port to listen on (default: 8080)
	ENVIRONMENT     deployment environment (development, production)
	DATABASE_URL    Postgres connection string (required)
	REDIS_URL       Redis connection string (required)

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish connections to Postgres and Redis.
 4. Migration: Run idempotent schema updates.
 5. Wiring: Inject dependencies into domain services/handlers.
 6. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/qisumi/inkvault/internal/api"
	"github.com/qisumi/inkvault/internal/artifact"
	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/discovery"
	"github.com/qisumi/inkvault/internal/download"
	"github.com/qisumi/inkvault/internal/platform/authgate"
	"github.com/qisumi/inkvault/internal/platform/config"
	"github.com/qisumi/inkvault/internal/platform/constants"
	"github.com/qisumi/inkvault/internal/platform/migration"
	pgstore "github.com/qisumi/inkvault/internal/platform/postgres"
	redisstore "github.com/qisumi/inkvault/internal/platform/redis"
	"github.com/qisumi/inkvault/internal/progressbus"
	"github.com/qisumi/inkvault/internal/quota"
	"github.com/qisumi/inkvault/internal/reader"
	"github.com/qisumi/inkvault/internal/source"
	"github.com/qisumi/inkvault/internal/users"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries for trace correlation
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[inkvault] service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Adjust log level if debug mode is explicitly enabled
	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. A 30s deadline prevents the app from hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// # 4. Redis
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// # 5. Migrations
	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// # 6. Health Wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// # 7. Catalog Store (C1)
	books := catalog.NewBookStore(pool)
	chapters := catalog.NewChapterStore(pool)
	tasks := catalog.NewTaskStore(pool)
	catalogSvc := catalog.NewService(books, chapters, tasks, log)

	// # 8. Blob Store (C2)
	blobs, err := blobstore.New(blobstore.Config{
		BooksDir: cfg.BooksDir,
		EpubsDir: cfg.EpubsDir,
		TxtsDir:  cfg.TxtsDir,
	})
	if err != nil {
		return fmt.Errorf("initialize blob store: %w", err)
	}

	// # 9. Source Client (C3). Each provider's search results are cached in
	// Redis independently of the other providers' clients.
	registry := source.NewRegistry(
		source.NewCachedClient(
			source.NewFanqieClient(cfg.RainAPIKey, cfg.RainAPIBaseURL, cfg.APITimeout(), cfg.APIRetryTimes),
			rdb, log,
		),
		source.NewCachedClient(
			source.NewQimaoClient(cfg.RainAPIKey, cfg.RainAPIBaseURL, cfg.APITimeout(), cfg.APIRetryTimes),
			rdb, log,
		),
		source.NewCachedClient(
			source.NewBiqugeClient(cfg.APITimeout(), cfg.APIRetryTimes),
			rdb, log,
		),
	)

	// # 10. Quota Ledger (C4)
	quotaStore := quota.NewStore(pool)
	ledger := quota.New(quotaStore, cfg.DailyWordLimit, nil)

	// # 11. Progress Bus (C6)
	bus := progressbus.New(log)

	// # 12. Download Engine (C5)
	engine := download.New(catalogSvc, blobs, ledger, registry, bus, download.Config{
		ConcurrentDownloads: cfg.ConcurrentDownloads,
		DownloadDelay:       cfg.DownloadDelayDuration(),
	}, log)

	// # 13. Artifact Assembly (C9)
	artifactMeta := artifact.Metadata{Language: cfg.EpubLanguage, Publisher: cfg.EpubPublisher}
	artifactSvc := artifact.New(catalogSvc, blobs, artifactMeta, log)

	// # 14. Reader Service (C7)
	readerStore := reader.NewStore(pool)
	readerSvc := reader.New(readerStore, catalogSvc, blobs, engine, artifactSvc, log)

	// # 15. Book Discovery
	discoverySvc := discovery.New(registry, catalogSvc, readerSvc, blobs, log)

	// # 16. Bookshelf-owner Profiles
	usersStore := users.NewStore(pool)
	usersSvc := users.New(usersStore, catalogSvc)

	// When the caller sets delete_files, deleting a book also removes its
	// books/<uuid>/ subtree once the relational rows are gone. Generated
	// EPUB/TXT artifact files are not removed here.
	catalogSvc.OnBookDeleted(func(ctx context.Context, bookID string, deleteFiles bool) {
		if !deleteFiles {
			return
		}
		if err := blobs.DeleteBook(bookID); err != nil {
			log.Error("book_blob_cleanup_failed", slog.String("book_id", bookID), slog.Any("error", err))
		}
	})

	// # 17. Auth Gate (spec §4.8)
	gate := authgate.New(cfg.SecretKey, cfg.AppPassword, cfg.SessionExpireHours)

	// # 18. API Assembly
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      api.NewAuthHandler(gate),
		Catalog:   catalog.NewHandler(catalogSvc),
		Discovery: discovery.NewHandler(discoverySvc),
		Reader:    reader.NewHandler(readerSvc),
		Artifact:  artifact.NewHandler(artifactSvc, catalogSvc, blobs),
		Download:  download.NewHandler(engine, catalogSvc),
		Quota:     quota.NewHandler(ledger, registry.Providers()),
		Users:     users.NewHandler(usersSvc),
		WS:        api.NewWSHandler(catalogSvc, bus, gate, log),
	}

	extraOrigins := strings.Split(cfg.ExtraOrigins, ",")

	// Create a background context for the whole application lifecycle
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, gate, extraOrigins, handlers)

	// # 19. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("inkvault_api_running", slog.String("port", cfg.ServerPort))

	// Block until signal or error
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	// Start Graceful Shutdown Sequence
	appCancel() // Signal background workers to stop

	log.Info("shutting_down_api_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}
