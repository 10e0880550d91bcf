// Updater is the entry point for the flibusta dump ingestion pipeline.
//
// It downloads the twelve lib.* dump files published at a configured HTTP
// origin, parses their INSERT statements, and upserts authors, books, and
// everything linking them into a PostgreSQL store — either on a daily
// schedule or on demand via an authenticated HTTP trigger.
//
// Usage:
//
//	go run ./cmd/updater
//
// Startup sequence:
//
//  1. Logger: structured JSON logging (slog).
//  2. Config: load and validate environment variables.
//  3. Storage: connect to Postgres.
//  4. Migration: idempotent schema bootstrap.
//  5. Wiring: the single-run guard (connecting to Redis if a distributed
//     run-lock is configured), downloader, orchestrator, webhook notifier,
//     and HTTP trigger.
//  6. Server: bind the HTTP listener, start the daily scheduler, and handle
//     graceful shutdown.
//
// No ingestion logic lives here — this file is strictly orchestration and
// wiring.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/ingest"
	"github.com/flibusta-go/libupdater/internal/lock"
	"github.com/flibusta-go/libupdater/internal/platform/config"
	"github.com/flibusta-go/libupdater/internal/platform/constants"
	"github.com/flibusta-go/libupdater/internal/platform/migration"
	"github.com/flibusta-go/libupdater/internal/platform/postgres"
	"github.com/flibusta-go/libupdater/internal/platform/redis"
	"github.com/flibusta-go/libupdater/internal/trigger"
	"github.com/flibusta-go/libupdater/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("libupdater_initializing", slog.String("version", constants.AppVersion))

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	raven.SetDSN(cfg.SentryDSN)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := postgres.NewPool(startupCtx, cfg.PostgresDSN(), cfg.PostgresPoolSize, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	// # 4. Migrations
	if err := migration.RunUp(cfg.PostgresDSN(), cfg.MigrationPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// # 5. Single-run guard
	var guard lock.Guard = lock.NewInProcess()
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(startupCtx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		guard = lock.NewDistributed(rdb)
		log.Info("run_lock_backend", slog.String("backend", "redis"))
	} else {
		log.Info("run_lock_backend", slog.String("backend", "in_process"))
	}

	// # 6. Source row
	sourceID, err := resolveSourceID(startupCtx, pool, constants.SourceName)
	if err != nil {
		return fmt.Errorf("resolve source id: %w", err)
	}

	// # 7. Orchestrator
	downloader := ingest.NewDownloader(cfg.FLBaseURL, ingest.DefaultLimiter())
	orchestrator := ingest.NewOrchestrator(pool, downloader, sourceID)

	// # 8. Webhook fan-out
	notifier := webhook.New(cfg.Webhooks, log)
	after := func(report ingest.RunReport) {
		if report.Success {
			notifier.Notify(context.Background(), webhook.FromReport(report))
		}
		printRunSummary(report)
		if !report.Success {
			raven.CaptureError(fmt.Errorf("pipeline run %s finished with failures", report.RunID), map[string]string{
				"run_id": report.RunID,
			})
		}
	}

	// # 9. HTTP trigger
	triggerHandler := trigger.NewHandler(cfg.APIKey, guard, orchestrator, after, log)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(constants.ShutdownTimeout))
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Mount("/", triggerHandler.Routes())

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadTimeout:       constants.ReadTimeout,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		WriteTimeout:      constants.WriteTimeout,
		IdleTimeout:       constants.IdleTimeout,
	}

	// # 10. Daily scheduler
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	go runDailyScheduler(schedulerCtx, triggerHandler, log)

	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("libupdater_running", slog.String("port", cfg.ServerPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	schedulerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	log.Info("shutting_down_trigger_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}

// resolveSourceID looks up the id of the "sources" row this pipeline
// reconciles against. The row is seeded by the schema migration, but a
// hand-provisioned database may not have run it, so a missing row is
// inserted here rather than treated as fatal.
func resolveSourceID(ctx context.Context, pool *pgxpool.Pool, name string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO sources (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id;
	`, name).Scan(&id)
	return id, err
}

// runDailyScheduler sleeps until the next configured daily run time, fires
// the same trigger path as an authorized POST /update, and repeats. A run
// already in flight (e.g. from a manual trigger) is simply skipped for that
// day — TriggerAsync reports false and the loop moves on.
func runDailyScheduler(ctx context.Context, handler *trigger.Handler, log *slog.Logger) {
	for {
		wait := time.Until(nextDailyRun(time.Now()))
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			log.Info("daily_schedule_fired")
			if !handler.TriggerAsync() {
				log.Info("daily_schedule_skipped", slog.String("reason", "run already in progress"))
			}
		}
	}
}

// nextDailyRun returns the next occurrence of the configured daily run
// time strictly after now, in now's location.
func nextDailyRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), constants.DailyRunHour, constants.DailyRunMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
