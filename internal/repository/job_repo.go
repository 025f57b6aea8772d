package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unjobhub/backend/internal/domain"
	"gorm.io/gorm"
)

// JobRepository owns the jobs table of the local store.
type JobRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//   - batchSize: rows per insert transaction during a full reload; values
//     below 1 fall back to 500.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB, batchSize int) *JobRepository {
	if batchSize < 1 {
		batchSize = 500
	}
	return &JobRepository{db: db, batchSize: batchSize}
}

// ReplaceAll clears the jobs table and reinserts the given snapshot.
// Full-reload semantics: the table is truncated in its own transaction,
// then rows are inserted in one transaction per batch. The run as a whole
// is therefore not atomic; readers may observe an empty or partial table
// during the reload window. A batch insert aborts on first error and fails
// the whole reload (raw data is trusted, unlike the downstream leg).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobs: complete enriched snapshot for this sync run.
// Returns:
//   - error: non-nil if the truncate or any batch insert fails.
func (r *JobRepository) ReplaceAll(ctx context.Context, jobs []domain.Job) error {
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Job{}).Error
	}); err != nil {
		return fmt.Errorf("failed to clear jobs table: %w", err)
	}

	for start := 0; start < len(jobs); start += r.batchSize {
		end := start + r.batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		batch := jobs[start:end]
		if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(&batch).Error
		}); err != nil {
			return fmt.Errorf("failed to insert batch starting at %d: %w", start, err)
		}
	}
	return nil
}

// JobFilter narrows List results. Zero values mean "no filter".
type JobFilter struct {
	Category string
	Agency   string
	Search   string
	Status   domain.JobStatus
	Country  string
	Grade    string
	Sort     string // newest, deadline, confidence; default newest
	Limit    int
	Offset   int
}

// List retrieves jobs matching the filter with pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: filter and pagination options.
// Returns:
//   - []domain.Job: matching page of jobs.
//   - int64: total number of matching rows before pagination.
//   - error: non-nil if the query fails.
func (r *JobRepository) List(ctx context.Context, filter JobFilter) ([]domain.Job, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Job{})

	if filter.Category != "" {
		query = query.Where("primary_category = ?", filter.Category)
	}
	if filter.Agency != "" {
		query = query.Where("agency = ?", filter.Agency)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Country != "" {
		query = query.Where("duty_country = ?", filter.Country)
	}
	if filter.Grade != "" {
		query = query.Where("grade = ?", filter.Grade)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	switch filter.Sort {
	case "deadline":
		query = query.Order("apply_until ASC")
	case "confidence":
		query = query.Order("classification_confidence DESC")
	default:
		query = query.Order("posted_at DESC")
	}
	// Stable page order for rows with equal sort keys.
	query = query.Order("id ASC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var jobs []domain.Job
	if err := query.Limit(limit).Offset(filter.Offset).Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}

// GetByID retrieves a job by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.Job: job record if found.
//   - error: non-nil if lookup fails.
func (r *JobRepository) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// GetAll retrieves the full current snapshot, ordered by id. Used by the
// downstream publisher.
func (r *JobRepository) GetAll(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	return jobs, nil
}

// CountAll counts all jobs in the local store.
func (r *JobRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Job{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// OptionCount is one distinct filter value with its row count.
type OptionCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// FilterOptions enumerates the distinct values and counts for every
// filterable column.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - map[string][]OptionCount: options keyed by filter name (categories,
//     agencies, countries, grades, statuses).
//   - error: non-nil if any enumeration query fails.
func (r *JobRepository) FilterOptions(ctx context.Context) (map[string][]OptionCount, error) {
	columns := map[string]string{
		"categories": "primary_category",
		"agencies":   "agency",
		"countries":  "duty_country",
		"grades":     "grade",
		"statuses":   "status",
	}

	options := make(map[string][]OptionCount, len(columns))
	for name, column := range columns {
		var counts []OptionCount
		err := r.db.WithContext(ctx).
			Model(&domain.Job{}).
			Select(column+" AS value, COUNT(*) AS count").
			Where(column+" <> ''").
			Group(column).
			Order("count DESC, value ASC").
			Scan(&counts).Error
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate %s: %w", name, err)
		}
		options[name] = counts
	}
	return options, nil
}

// CorrectCategory applies a user correction to a job's primary category:
// confidence becomes 100 and the corrector is recorded. This is the only
// mutation path outside a sync run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID to correct.
//   - category: corrected primary category ID.
//   - correctedBy: identifier of the user making the correction.
// Returns:
//   - error: non-nil if the job does not exist or the update fails.
func (r *JobRepository) CorrectCategory(ctx context.Context, id int64, category, correctedBy string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&domain.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"primary_category":          category,
			"classification_confidence": 100,
			"user_corrected":            true,
			"corrected_by":              correctedBy,
			"corrected_at":              &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to correct category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
