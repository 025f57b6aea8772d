package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/unjobhub/backend/internal/logger"
	"github.com/unjobhub/backend/internal/service"
)

// Scheduler runs the full pipeline on a cron schedule. A tick that
// arrives while the previous run is still in flight is skipped: the
// pipeline is a single-writer design and two concurrent full reloads
// would race on the jobs table.
type Scheduler struct {
	cron    *cron.Cron
	syncSvc *service.SyncService
	log     *logger.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler around the given sync service.
// Parameters:
//   - syncSvc: pipeline orchestrator to trigger.
//   - log: logger, may be nil.
// Returns:
//   - *Scheduler: scheduler instance, not yet started.
func New(syncSvc *service.SyncService, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Scheduler{
		cron:    cron.New(),
		syncSvc: syncSvc,
		log:     log,
	}
}

// Start registers the cron spec and begins scheduling.
// Parameters:
//   - spec: cron expression, e.g. "0 */6 * * *".
// Returns:
//   - error: non-nil if the cron expression does not parse.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.WithField("schedule", spec).Info("sync scheduler started")
	return nil
}

// Stop stops scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("sync scheduler stopped")
}

func (s *Scheduler) tick() {
	if !s.tryAcquire() {
		s.log.Warn("previous sync still running, skipping this tick")
		return
	}
	defer s.release()

	ctx := context.Background()
	result, err := s.syncSvc.FullBidirectionalSync(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduled sync failed")
		return
	}
	s.log.WithFields(logger.Fields{
		logger.FieldCount: result.Stats.TotalJobs,
		"rows_published":  result.Publish.RowsWritten,
	}).Info("scheduled sync completed")
}

func (s *Scheduler) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
