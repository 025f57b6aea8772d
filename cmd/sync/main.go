package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/unjobhub/backend/internal/analytics"
	"github.com/unjobhub/backend/internal/backup"
	"github.com/unjobhub/backend/internal/classifier"
	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/logger"
	"github.com/unjobhub/backend/internal/publisher"
	"github.com/unjobhub/backend/internal/repository"
	"github.com/unjobhub/backend/internal/service"
	"github.com/unjobhub/backend/internal/source"
	"github.com/unjobhub/backend/internal/source/httpapi"
	"github.com/unjobhub/backend/internal/source/postgres"
)

func main() {
	var (
		full     = flag.Bool("full", false, "run the full pipeline: extract, classify, load, publish, backup")
		neonOnly = flag.Bool("neon-only", false, "publish the current local snapshot downstream without re-extracting")
	)
	flag.Parse()

	if !*full && !*neonOnly {
		*full = true
	}
	if *full && *neonOnly {
		log.Fatal("flags -full and -neon-only are mutually exclusive")
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.NewDefault()
	logger.SetDefaultLogger(appLog)
	defer logger.Sync()

	db, err := repository.InitLocalDB(&cfg.LocalDB)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize local database")
	}

	jobRepo := repository.NewJobRepository(db, cfg.Sync.BatchSize)
	syncRepo := repository.NewSyncRepository(db)
	cacheRepo := repository.NewCacheRepository(db)

	src, err := buildSource(&cfg.Source, *neonOnly)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize extraction source")
	}

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

	ctx := context.Background()
	if *neonOnly {
		result, err := syncSvc.SyncToNeon(ctx)
		if err != nil {
			appLog.WithError(err).Fatal("Downstream publish failed")
		}
		appLog.WithFields(logger.Fields{
			"rows_written":   result.RowsWritten,
			"failed_batches": result.FailedBatches,
		}).Info("Downstream publish finished")
		return
	}

	result, err := syncSvc.FullBidirectionalSync(ctx)
	if err != nil {
		appLog.WithError(err).Fatal("Sync failed")
	}
	fields := logger.Fields{
		logger.FieldCount:      result.Stats.TotalJobs,
		logger.FieldDurationMs: result.Stats.DurationMs,
		"defects":              result.Stats.Defects,
		"rows_published":       result.Publish.RowsWritten,
	}
	if result.BackupKey != "" {
		fields["backup_key"] = result.BackupKey
	}
	if result.BackupError != "" {
		fields["backup_error"] = result.BackupError
	}
	appLog.WithFields(fields).Info("Sync finished")
}

// buildSource selects the extraction adapter. The -neon-only mode never
// extracts, so a missing source configuration is tolerated there.
func buildSource(cfg *config.SourceConfig, neonOnly bool) (source.Source, error) {
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
	if neonOnly {
		return &noSource{}, nil
	}
	return nil, errors.New("no extraction source configured: set source.dsn or source.api_base_url")
}

type noSource struct{}

func (*noSource) Name() string { return "none" }

func (*noSource) FetchAll(context.Context) ([]domain.RawJob, error) {
	return nil, errors.New("no extraction source configured")
}
