package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unjobhub/backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCacheMiss is returned by Get when no fresh entry exists for a key.
var ErrCacheMiss = errors.New("analytics cache miss")

// CacheRepository owns the analytics_cache key/value table. Entries carry
// created_at/expires_at; Get returns an entry only while now < expires_at.
type CacheRepository struct {
	db *gorm.DB
	// now is injectable for TTL boundary tests.
	now func() time.Time
}

// NewCacheRepository creates a new CacheRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CacheRepository: repository instance bound to db.
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

// WithClock returns a copy of the repository using the given clock.
// Intended for tests.
func (r *CacheRepository) WithClock(now func() time.Time) *CacheRepository {
	return &CacheRepository{db: r.db, now: now}
}

// Get returns the cached blob for key if it is still fresh.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: cache key.
// Returns:
//   - string: cached JSON blob.
//   - error: ErrCacheMiss when absent or stale; other errors on query failure.
func (r *CacheRepository) Get(ctx context.Context, key string) (string, error) {
	var entry domain.AnalyticsCacheEntry
	err := r.db.WithContext(ctx).First(&entry, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}
	if !entry.Fresh(r.now()) {
		return "", ErrCacheMiss
	}
	return entry.Data, nil
}

// Put stores or overwrites the cached blob for key with the given TTL.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: cache key.
//   - data: JSON blob to store.
//   - ttl: validity window added to now.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *CacheRepository) Put(ctx context.Context, key, data string, ttl time.Duration) error {
	now := r.now()
	entry := domain.AnalyticsCacheEntry{
		CacheKey:  key,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}
	return nil
}

// DeleteExpired removes all entries whose expiry has passed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: number of deleted rows.
//   - error: non-nil if the delete fails.
func (r *CacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now()).
		Delete(&domain.AnalyticsCacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
