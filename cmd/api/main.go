package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unjobhub/backend/internal/analytics"
	"github.com/unjobhub/backend/internal/api"
	"github.com/unjobhub/backend/internal/backup"
	"github.com/unjobhub/backend/internal/classifier"
	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/logger"
	"github.com/unjobhub/backend/internal/publisher"
	"github.com/unjobhub/backend/internal/repository"
	"github.com/unjobhub/backend/internal/scheduler"
	"github.com/unjobhub/backend/internal/service"
	"github.com/unjobhub/backend/internal/source"
	"github.com/unjobhub/backend/internal/source/httpapi"
	"github.com/unjobhub/backend/internal/source/postgres"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLog := logger.NewDefault()
	logger.SetDefaultLogger(appLog)
	defer logger.Sync()

	// Initialize local database
	db, err := repository.InitLocalDB(&cfg.LocalDB)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize local database")
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db, cfg.Sync.BatchSize)
	syncRepo := repository.NewSyncRepository(db)
	cacheRepo := repository.NewCacheRepository(db)

	// Initialize extraction source
	src, err := buildSource(&cfg.Source)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize extraction source")
	}

	// Initialize services
	engine := classifier.NewEngine(classifier.DefaultTaxonomy())
	analyticsSvc := analytics.NewService(db, cacheRepo, cfg.Sync.CacheTTL, appLog)

	pub, err := publisher.New(&cfg.Neon, cfg.Sync.BatchSize, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize downstream publisher")
	}

	backupClient, err := backup.New(&cfg.Backup, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize backup client")
	}

	syncSvc := service.NewSyncService(
		src, engine, jobRepo, syncRepo, analyticsSvc,
		pub, backupClient, cfg.LocalDB.Path, appLog,
	)

	// Start the cron scheduler if a schedule is configured
	if cfg.Sync.Schedule != "" {
		sched := scheduler.New(syncSvc, appLog)
		if err := sched.Start(cfg.Sync.Schedule); err != nil {
			appLog.WithError(err).Fatal("Failed to start sync scheduler")
		}
		defer sched.Stop()
	}

	// Setup router
	router := api.SetupRouter(db, jobRepo, analyticsSvc, syncSvc, &cfg.Server, appLog)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLog.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Fatal("Server forced to shutdown")
	}

	appLog.Info("Server exited")
}

// buildSource selects the extraction adapter from configuration: the
// postgres adapter when a DSN is set, the HTTP job-board adapter when a
// base URL is set.
func buildSource(cfg *config.SourceConfig) (source.Source, error) {
	if cfg.DSN != "" {
		adapter, err := postgres.New(cfg)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	}
	if cfg.APIBaseURL != "" {
		return httpapi.New(cfg), nil
	}
	return nil, errors.New("no extraction source configured: set source.dsn or source.api_base_url")
}
