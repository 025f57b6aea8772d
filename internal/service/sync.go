package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unjobhub/backend/internal/analytics"
	"github.com/unjobhub/backend/internal/backup"
	"github.com/unjobhub/backend/internal/classifier"
	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/enricher"
	"github.com/unjobhub/backend/internal/logger"
	"github.com/unjobhub/backend/internal/publisher"
	"github.com/unjobhub/backend/internal/repository"
	"github.com/unjobhub/backend/internal/source"
)

// SyncStats summarizes one local sync run.
type SyncStats struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"`
	TotalJobs  int           `json:"total_jobs"`
	Defects    int           `json:"defects"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
}

// BidirectionalResult combines local sync stats with the downstream
// publish outcome.
type BidirectionalResult struct {
	Stats       *SyncStats               `json:"stats"`
	Publish     *publisher.PublishResult `json:"publish,omitempty"`
	BackupKey   string                   `json:"backup_key,omitempty"`
	BackupError string                   `json:"backup_error,omitempty"`
}

// SyncService orchestrates the full pipeline: extract from the source
// store, classify and enrich every record, replace the local snapshot,
// precompute analytics, and optionally publish downstream and upload a
// database backup.
type SyncService struct {
	source    source.Source
	engine    *classifier.Engine
	jobs      *repository.JobRepository
	syncMeta  *repository.SyncRepository
	analytics *analytics.Service
	publisher *publisher.NeonPublisher
	backup    *backup.Client
	dbPath    string
	log       *logger.Logger
	now       func() time.Time
}

// NewSyncService wires the orchestrator.
// Parameters:
//   - src: extraction backend.
//   - engine: classification engine.
//   - jobs: local jobs repository.
//   - syncMeta: sync metadata repository.
//   - analyticsSvc: analytics precompute service.
//   - pub: downstream publisher (may be the no-op publisher).
//   - bak: backup client, may be nil to disable backups.
//   - dbPath: local database file path, used by the backup leg.
//   - log: logger, may be nil.
// Returns:
//   - *SyncService: orchestrator instance.
func NewSyncService(
	src source.Source,
	engine *classifier.Engine,
	jobs *repository.JobRepository,
	syncMeta *repository.SyncRepository,
	analyticsSvc *analytics.Service,
	pub *publisher.NeonPublisher,
	bak *backup.Client,
	dbPath string,
	log *logger.Logger,
) *SyncService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &SyncService{
		source:    src,
		engine:    engine,
		jobs:      jobs,
		syncMeta:  syncMeta,
		analytics: analyticsSvc,
		publisher: pub,
		backup:    bak,
		dbPath:    dbPath,
		log:       log,
		now:       time.Now,
	}
}

// FullSync runs one complete extract-classify-enrich-load cycle against
// the local store. The metadata singleton is moved to syncing first and
// ends in completed or failed. Any error after MarkSyncing is recorded
// in the metadata row before being returned.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *SyncStats: run totals on success.
//   - error: non-nil if any stage fails.
func (s *SyncService) FullSync(ctx context.Context) (*SyncStats, error) {
	runID := uuid.New().String()
	ctx = logger.SetSyncID(ctx, runID)
	ctx = logger.SetComponent(ctx, "sync")
	start := s.now()

	if err := s.syncMeta.MarkSyncing(ctx); err != nil {
		return nil, err
	}

	stats, err := s.run(ctx, runID, start)
	if err != nil {
		logger.With(logger.Fields{logger.FieldStatus: "failed"}).
			Error(ctx, "sync failed: %v", err)
		if markErr := s.syncMeta.MarkFailed(ctx, err.Error()); markErr != nil {
			logger.CtxError(ctx, "failed to record sync failure: %v", markErr)
		}
		return nil, err
	}

	if err := s.syncMeta.MarkCompleted(ctx, stats.TotalJobs, stats.Duration); err != nil {
		// The row must not stay in syncing: that would wedge the manual
		// trigger's conflict guard until the next run.
		if markErr := s.syncMeta.MarkFailed(ctx, err.Error()); markErr != nil {
			logger.CtxError(ctx, "failed to record sync failure: %v", markErr)
		}
		return nil, err
	}
	logger.With(logger.Fields{"defects": stats.Defects}).
		WithCount(stats.TotalJobs).
		WithDuration(stats.DurationMs).
		Info(ctx, "sync completed")
	return stats, nil
}

func (s *SyncService) run(ctx context.Context, runID string, start time.Time) (*SyncStats, error) {
	logger.CtxInfo(ctx, "extracting postings from %s", s.source.Name())
	raw, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	logger.CtxInfo(ctx, "extracted %d deduplicated postings", len(raw))

	now := s.now()
	jobs := make([]domain.Job, 0, len(raw))
	defects := 0
	for _, rec := range raw {
		cls := s.engine.Classify(rec.Title, rec.Description, rec.Labels, rec.Grade)
		job, defect := enricher.Enrich(rec, cls, now)
		if defect {
			defects++
			logger.With(logger.Fields{"posting_id": rec.ID}).
				Warn(ctx, "unrecognized archived encoding, treated as not archived")
		}
		jobs = append(jobs, job)
	}

	if err := s.jobs.ReplaceAll(ctx, jobs); err != nil {
		return nil, fmt.Errorf("local load failed: %w", err)
	}

	if err := s.analytics.PrecomputeAll(ctx); err != nil {
		return nil, fmt.Errorf("analytics precompute failed: %w", err)
	}

	duration := s.now().Sub(start)
	return &SyncStats{
		RunID:      runID,
		Source:     s.source.Name(),
		TotalJobs:  len(jobs),
		Defects:    defects,
		Duration:   duration,
		DurationMs: duration.Milliseconds(),
	}, nil
}

// SyncToNeon publishes the current local snapshot downstream. With an
// unconfigured publisher this succeeds with zero rows written.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *publisher.PublishResult: publish outcome.
//   - error: non-nil if reading the local snapshot or publishing fails.
func (s *SyncService) SyncToNeon(ctx context.Context) (*publisher.PublishResult, error) {
	ctx = logger.SetComponent(ctx, "publish")
	jobs, err := s.jobs.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local snapshot: %w", err)
	}
	result, err := s.publisher.Publish(ctx, jobs)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FullBidirectionalSync runs FullSync and, only on success, the
// downstream publish leg and the optional snapshot backup. A backup
// failure is reported in the result but never fails the run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *BidirectionalResult: combined outcome.
//   - error: non-nil if the local sync or the publish leg fails.
func (s *SyncService) FullBidirectionalSync(ctx context.Context) (*BidirectionalResult, error) {
	stats, err := s.FullSync(ctx)
	if err != nil {
		return nil, err
	}

	publishResult, err := s.SyncToNeon(ctx)
	if err != nil {
		return nil, err
	}

	result := &BidirectionalResult{Stats: stats, Publish: publishResult}
	if s.backup != nil && s.backup.Configured() {
		key, err := s.backup.Snapshot(ctx, s.dbPath)
		if err != nil {
			logger.CtxError(ctx, "snapshot backup failed: %v", err)
			result.BackupError = err.Error()
		} else {
			result.BackupKey = key
		}
	}
	return result, nil
}

// Status returns the sync metadata singleton.
func (s *SyncService) Status(ctx context.Context) (*domain.SyncMetadata, error) {
	return s.syncMeta.Get(ctx)
}
