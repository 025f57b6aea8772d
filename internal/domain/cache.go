package domain

import "time"

// AnalyticsCacheEntry is one precomputed aggregate view stored as an opaque
// JSON blob with an expiry timestamp. Entries are overwritten at the end of
// each sync and lazily recomputed on read when missing or stale.
type AnalyticsCacheEntry struct {
	CacheKey  string    `gorm:"primaryKey;type:text" json:"cache_key"`
	Data      string    `gorm:"type:text;not null" json:"data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index:idx_analytics_cache_expires" json:"expires_at"`
}

// TableName returns the database table name for AnalyticsCacheEntry.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (AnalyticsCacheEntry) TableName() string {
	return "analytics_cache"
}

// Fresh reports whether the entry is still valid at the given instant.
func (e *AnalyticsCacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
