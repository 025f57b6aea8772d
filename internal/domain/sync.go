package domain

import "time"

// SyncStatus represents the state of the synchronization state machine.
// Values include SyncStatusNeverSynced, SyncStatusSyncing,
// SyncStatusCompleted, and SyncStatusFailed.
type SyncStatus string

const (
	SyncStatusNeverSynced SyncStatus = "never_synced"
	SyncStatusSyncing     SyncStatus = "syncing"
	SyncStatusCompleted   SyncStatus = "completed"
	SyncStatusFailed      SyncStatus = "failed"
)

// SyncMetadata is the singleton row (id=1) describing the last sync run.
// It is mutated only by the orchestrator and acts as a soft, non-atomic
// advisory flag of whether a sync is in progress. A single external
// scheduler is assumed to guarantee at most one run at a time.
type SyncMetadata struct {
	ID             int        `gorm:"primaryKey" json:"id"`
	Status         SyncStatus `gorm:"type:text;default:never_synced" json:"status"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	TotalJobs      int        `gorm:"default:0" json:"total_jobs"`
	SyncDurationMs int64      `gorm:"default:0" json:"sync_duration_ms"`
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for SyncMetadata.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (SyncMetadata) TableName() string {
	return "sync_metadata"
}
