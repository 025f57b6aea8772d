package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unjobhub/backend/internal/domain"
	"gorm.io/gorm"
)

// syncMetadataID is the fixed primary key of the singleton row.
const syncMetadataID = 1

// SyncRepository owns the sync_metadata singleton row. The row is the sole
// advisory signal of whether a sync is in progress; it is not an atomic
// lock.
type SyncRepository struct {
	db *gorm.DB
}

// NewSyncRepository creates a new SyncRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SyncRepository: repository instance bound to db.
func NewSyncRepository(db *gorm.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// Get returns the singleton metadata row, bootstrapping a never_synced row
// on first access.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.SyncMetadata: current sync metadata.
//   - error: non-nil if the read or bootstrap fails.
func (r *SyncRepository) Get(ctx context.Context) (*domain.SyncMetadata, error) {
	var meta domain.SyncMetadata
	err := r.db.WithContext(ctx).First(&meta, "id = ?", syncMetadataID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		meta = domain.SyncMetadata{ID: syncMetadataID, Status: domain.SyncStatusNeverSynced}
		if err := r.db.WithContext(ctx).Create(&meta).Error; err != nil {
			return nil, fmt.Errorf("failed to bootstrap sync metadata: %w", err)
		}
		return &meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync metadata: %w", err)
	}
	return &meta, nil
}

// MarkSyncing transitions the singleton row to the syncing state.
func (r *SyncRepository) MarkSyncing(ctx context.Context) error {
	return r.update(ctx, map[string]interface{}{
		"status":     domain.SyncStatusSyncing,
		"last_error": "",
	})
}

// MarkCompleted records a successful run with its totals.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - totalJobs: number of jobs in the new snapshot.
//   - duration: wall-clock duration of the run.
// Returns:
//   - error: non-nil if the update fails.
func (r *SyncRepository) MarkCompleted(ctx context.Context, totalJobs int, duration time.Duration) error {
	now := time.Now()
	return r.update(ctx, map[string]interface{}{
		"status":           domain.SyncStatusCompleted,
		"last_sync_at":     &now,
		"total_jobs":       totalJobs,
		"sync_duration_ms": duration.Milliseconds(),
		"last_error":       "",
	})
}

// MarkFailed records a failed run with its error message.
func (r *SyncRepository) MarkFailed(ctx context.Context, errMsg string) error {
	return r.update(ctx, map[string]interface{}{
		"status":     domain.SyncStatusFailed,
		"last_error": errMsg,
	})
}

func (r *SyncRepository) update(ctx context.Context, values map[string]interface{}) error {
	// Ensure the singleton exists before updating it.
	if _, err := r.Get(ctx); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Model(&domain.SyncMetadata{}).
		Where("id = ?", syncMetadataID).
		Updates(values).Error
	if err != nil {
		return fmt.Errorf("failed to update sync metadata: %w", err)
	}
	return nil
}
