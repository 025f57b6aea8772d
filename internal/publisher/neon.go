// Package publisher projects the enriched local snapshot into the
// production-facing store consumed by the public dashboard.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/logger"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// verboseBatchFailures is how many failed batches are logged with full
// detail before the rest are only counted.
const verboseBatchFailures = 3

// DashboardJob is the downstream projection of an enriched posting: the
// descriptive subset the public dashboard needs, with the primary category
// mapped to the dashboard's sectoral_category column. The unique id key
// makes the bulk upsert idempotent.
type DashboardJob struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"type:text;not null" json:"title"`
	Agency           string     `gorm:"type:text" json:"agency"`
	DutyStation      string     `gorm:"type:text" json:"duty_station"`
	DutyCountry      string     `gorm:"type:text" json:"duty_country"`
	Grade            string     `gorm:"type:text" json:"grade"`
	PostedAt         *time.Time `json:"posted_at,omitempty"`
	ApplyUntil       *time.Time `json:"apply_until,omitempty"`
	URL              string     `gorm:"type:text" json:"url"`
	ApplyURL         string     `gorm:"type:text" json:"apply_url"`
	SectoralCategory string     `gorm:"type:text" json:"sectoral_category"`
	Status           string     `gorm:"type:text" json:"status"`
	Archived         bool       `json:"archived"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for DashboardJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (DashboardJob) TableName() string {
	return "dashboard_jobs"
}

// PublishResult summarizes one downstream publish run. Success stays true
// as long as the publisher itself ran; individual batch failures are
// counted, not fatal.
type PublishResult struct {
	Success       bool `json:"success"`
	RowsWritten   int  `json:"rows_written"`
	FailedBatches int  `json:"failed_batches"`
}

// NeonPublisher bulk-upserts enriched postings into the downstream store.
// A publisher with no database handle is a documented no-op that reports
// success with zero rows moved: sync-to-local must never be blocked by
// downstream unavailability.
type NeonPublisher struct {
	db        *gorm.DB
	batchSize int
	log       *logger.Logger
}

// New connects to the downstream store and returns a publisher. An empty
// DSN yields the no-op publisher without error.
// Parameters:
//   - cfg: downstream store configuration.
//   - log: structured logger.
// Returns:
//   - *NeonPublisher: publisher (possibly no-op).
//   - error: non-nil if a configured connection cannot be established.
func New(cfg *config.NeonConfig, batchSize int, log *logger.Logger) (*NeonPublisher, error) {
	if cfg.DSN == "" {
		log.Info("Downstream store not configured, publisher will be a no-op")
		return NewWithDB(nil, batchSize, log), nil
	}

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to downstream store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&DashboardJob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate downstream schema: %w", err)
	}

	return NewWithDB(db, batchSize, log), nil
}

// NewWithDB creates a publisher over an existing handle. A nil handle
// yields the no-op publisher. Intended for wiring and tests.
func NewWithDB(db *gorm.DB, batchSize int, log *logger.Logger) *NeonPublisher {
	if batchSize < 1 {
		batchSize = 500
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &NeonPublisher{db: db, batchSize: batchSize, log: log}
}

// Configured reports whether a downstream store is attached.
func (p *NeonPublisher) Configured() bool {
	return p.db != nil
}

// Publish upserts the given snapshot into the downstream store in
// independent batches. A failed batch is logged and skipped; the result
// reports partial success rather than aborting the run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobs: enriched snapshot to project downstream.
// Returns:
//   - PublishResult: success flag, rows written, failed batch count.
//   - error: always nil today; reserved for future fatal conditions.
func (p *NeonPublisher) Publish(ctx context.Context, jobs []domain.Job) (PublishResult, error) {
	if p.db == nil {
		return PublishResult{Success: true}, nil
	}

	result := PublishResult{Success: true}
	batchNum := 0
	for start := 0; start < len(jobs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		batchNum++

		rows := make([]DashboardJob, 0, end-start)
		for _, job := range jobs[start:end] {
			rows = append(rows, project(job))
		}

		err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error
		if err != nil {
			result.FailedBatches++
			if result.FailedBatches <= verboseBatchFailures {
				p.log.WithFields(logger.Fields{
					logger.FieldBatch: batchNum,
					logger.FieldCount: len(rows),
				}).WithError(err).Error("Failed to publish batch")
			}
			continue
		}
		result.RowsWritten += len(rows)
	}

	if result.FailedBatches > verboseBatchFailures {
		p.log.WithFields(logger.Fields{
			"suppressed": result.FailedBatches - verboseBatchFailures,
		}).Warn("Additional batch failures were counted silently")
	}

	return result, nil
}

// CountRows counts the downstream rows. Used for run reporting and tests.
func (p *NeonPublisher) CountRows(ctx context.Context) (int64, error) {
	if p.db == nil {
		return 0, nil
	}
	var count int64
	if err := p.db.WithContext(ctx).Model(&DashboardJob{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// project maps an enriched posting to its downstream row.
func project(job domain.Job) DashboardJob {
	return DashboardJob{
		ID:               job.ID,
		Title:            job.Title,
		Agency:           job.Agency,
		DutyStation:      job.DutyStation,
		DutyCountry:      job.DutyCountry,
		Grade:            job.Grade,
		PostedAt:         job.PostedAt,
		ApplyUntil:       job.ApplyUntil,
		URL:              job.URL,
		ApplyURL:         job.ApplyURL,
		SectoralCategory: job.PrimaryCategory,
		Status:           string(job.Status),
		Archived:         job.Archived,
	}
}
