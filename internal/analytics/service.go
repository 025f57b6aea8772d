package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/logger"
	"github.com/unjobhub/backend/internal/repository"
	"gorm.io/gorm"
)

// DefaultTTL is how long a computed view stays valid in the cache.
const DefaultTTL = 24 * time.Hour

// Service computes the seven dashboard views over the local jobs table.
// Every read goes through the analytics cache: a fresh entry is served
// as-is, a miss or stale entry triggers a recompute and a cache write.
type Service struct {
	db    *gorm.DB
	cache *repository.CacheRepository
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

// NewService creates an analytics Service.
// Parameters:
//   - db: GORM handle on the local store.
//   - cache: analytics cache repository.
//   - ttl: cache validity window; DefaultTTL when <= 0.
//   - log: logger, may be nil.
// Returns:
//   - *Service: service instance.
func NewService(db *gorm.DB, cache *repository.CacheRepository, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Service{db: db, cache: cache, ttl: ttl, log: log, now: time.Now}
}

// WithClock returns a copy of the service using the given clock.
// Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Overview returns the headline aggregate, cached.
func (s *Service) Overview(ctx context.Context) (json.RawMessage, error) {
	return s.view(ctx, KeyOverview, func(ctx context.Context) (interface{}, error) {
		return s.computeOverview(ctx)
	})
}

// Categories returns the per-category breakdown, cached.
func (s *Service) Categories(ctx context.Context) (json.RawMessage, error) {
	return s.view(ctx, KeyCategories, func(ctx context.Context) (interface{}, error) {
		return s.computeCategories(ctx)
	})
}

// Agencies returns the per-agency breakdown, cached.
func (s *Service) Agencies(ctx context.Context) (json.RawMessage, error) {
	return s.view(ctx, KeyAgencies, func(ctx context.Context) (interface{}, error) {
		return s.computeAgencies(ctx)
	})
}

// Temporal returns the monthly posting/deadline trend, cached.
func (s *Service) Temporal(ctx context.Context) (json.RawMessage, error) {
	return s.view(ctx, KeyTemporal, func(ctx context.Context) (interface{}, error) {
		return s.computeTemporal(ctx)
	})
}

// Workforce returns the seniority/location/grade composition, cached.
func (s *Service) Workforce(ctx context.Context) (json.RawMessage, error) {
	return s.view(ctx, KeyWorkforce, func(ctx context.Context) (interface{}, error) {
		return s.computeWorkforce(ctx)
	})
}

// Skills returns the skill domain frequencies, cached.
func (s *Service) Skills(ctx context.Context) (json.RawMessage, error) {
	return s.view(ctx, KeySkills, func(ctx context.Context) (interface{}, error) {
		return s.computeSkills(ctx)
	})
}

// Competitive returns the application-pressure ranking, cached.
func (s *Service) Competitive(ctx context.Context) (json.RawMessage, error) {
	return s.view(ctx, KeyCompetitive, func(ctx context.Context) (interface{}, error) {
		return s.computeCompetitive(ctx)
	})
}

// PrecomputeAll recomputes every view and overwrites the cache,
// regardless of freshness. Called at the end of each sync so the first
// dashboard request after a sync never pays the aggregation cost.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: first compute or cache write failure.
func (s *Service) PrecomputeAll(ctx context.Context) error {
	views := []struct {
		key     string
		compute func(ctx context.Context) (interface{}, error)
	}{
		{KeyOverview, func(ctx context.Context) (interface{}, error) { return s.computeOverview(ctx) }},
		{KeyCategories, func(ctx context.Context) (interface{}, error) { return s.computeCategories(ctx) }},
		{KeyAgencies, func(ctx context.Context) (interface{}, error) { return s.computeAgencies(ctx) }},
		{KeyTemporal, func(ctx context.Context) (interface{}, error) { return s.computeTemporal(ctx) }},
		{KeyWorkforce, func(ctx context.Context) (interface{}, error) { return s.computeWorkforce(ctx) }},
		{KeySkills, func(ctx context.Context) (interface{}, error) { return s.computeSkills(ctx) }},
		{KeyCompetitive, func(ctx context.Context) (interface{}, error) { return s.computeCompetitive(ctx) }},
	}
	start := s.now()
	for _, v := range views {
		if _, err := s.refresh(ctx, v.key, v.compute); err != nil {
			return fmt.Errorf("failed to precompute %s: %w", v.key, err)
		}
	}
	s.log.WithField(logger.FieldDurationMs, time.Since(start).Milliseconds()).
		Infof("precomputed %d analytics views", len(views))
	return nil
}

// view implements the read-through path: serve fresh cache, otherwise
// compute, store, serve.
func (s *Service) view(ctx context.Context, key string, compute func(ctx context.Context) (interface{}, error)) (json.RawMessage, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return json.RawMessage(cached), nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		return nil, err
	}
	return s.refresh(ctx, key, compute)
}

func (s *Service) refresh(ctx context.Context, key string, compute func(ctx context.Context) (interface{}, error)) (json.RawMessage, error) {
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	blob, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.cache.Put(ctx, key, string(blob), s.ttl); err != nil {
		return nil, err
	}
	logger.With(logger.Fields{"cache_key": key}).
		Debug(ctx, "analytics view recomputed")
	return json.RawMessage(blob), nil
}

func (s *Service) computeOverview(ctx context.Context) (*OverviewView, error) {
	var v OverviewView
	row := s.db.WithContext(ctx).Model(&domain.Job{}).
		Select(`COUNT(*) AS total_jobs,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active_jobs,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS closing_soon,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS expired,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS archived,
			COALESCE(SUM(CASE WHEN urgency = ? THEN 1 ELSE 0 END), 0) AS urgent_jobs,
			COALESCE(SUM(CASE WHEN location_type = ? THEN 1 ELSE 0 END), 0) AS remote_jobs,
			COUNT(DISTINCT agency) AS agency_count,
			COALESCE(AVG(classification_confidence), 0) AS avg_confidence`,
			domain.JobStatusActive, domain.JobStatusClosingSoon,
			domain.JobStatusExpired, domain.JobStatusArchived,
			domain.UrgencyUrgent, domain.LocationRemote)
	if err := row.Scan(&v).Error; err != nil {
		return nil, fmt.Errorf("failed to compute overview: %w", err)
	}
	v.GeneratedAt = s.now().UTC()
	return &v, nil
}

func (s *Service) computeCategories(ctx context.Context) (*CategoriesView, error) {
	var rows []CategoryStat
	err := s.db.WithContext(ctx).Model(&domain.Job{}).
		Select(`primary_category AS category,
			COUNT(*) AS count,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS active_count,
			COALESCE(AVG(classification_confidence), 0) AS avg_confidence`,
			domain.JobStatusActive).
		Group("primary_category").
		Order("count DESC, primary_category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute categories: %w", err)
	}
	var total int64
	for _, r := range rows {
		total += r.Count
	}
	for i := range rows {
		if total > 0 {
			rows[i].Share = float64(rows[i].Count) / float64(total)
		}
	}
	return &CategoriesView{Categories: rows, GeneratedAt: s.now().UTC()}, nil
}

func (s *Service) computeAgencies(ctx context.Context) (*AgenciesView, error) {
	var rows []AgencyStat
	err := s.db.WithContext(ctx).Model(&domain.Job{}).
		Select(`agency,
			COUNT(*) AS count,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS active_count,
			COALESCE(AVG(application_window_days), 0) AS avg_window_days`,
			domain.JobStatusActive).
		Where("agency <> ''").
		Group("agency").
		Order("count DESC, agency ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute agencies: %w", err)
	}
	return &AgenciesView{Agencies: rows, GeneratedAt: s.now().UTC()}, nil
}

func (s *Service) computeTemporal(ctx context.Context) (*TemporalView, error) {
	type monthCount struct {
		Month string
		Count int64
	}
	buckets := map[string]*TemporalBucket{}

	var posted []monthCount
	err := s.db.WithContext(ctx).Model(&domain.Job{}).
		Select(`strftime('%Y-%m', posted_at) AS month, COUNT(*) AS count`).
		Where("posted_at IS NOT NULL").
		Group("month").
		Scan(&posted).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute posting trend: %w", err)
	}
	for _, p := range posted {
		buckets[p.Month] = &TemporalBucket{Month: p.Month, Posted: p.Count}
	}

	var deadlines []monthCount
	err = s.db.WithContext(ctx).Model(&domain.Job{}).
		Select(`strftime('%Y-%m', apply_until) AS month, COUNT(*) AS count`).
		Where("apply_until IS NOT NULL").
		Group("month").
		Scan(&deadlines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute deadline trend: %w", err)
	}
	for _, d := range deadlines {
		b, ok := buckets[d.Month]
		if !ok {
			b = &TemporalBucket{Month: d.Month}
			buckets[d.Month] = b
		}
		b.Deadlines = d.Count
	}

	out := make([]TemporalBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return &TemporalView{Buckets: out, GeneratedAt: s.now().UTC()}, nil
}

func (s *Service) computeWorkforce(ctx context.Context) (*WorkforceView, error) {
	bySeniority, err := s.countBy(ctx, "seniority_level")
	if err != nil {
		return nil, err
	}
	byLocation, err := s.countBy(ctx, "location_type")
	if err != nil {
		return nil, err
	}
	byGrade, err := s.countBy(ctx, "grade")
	if err != nil {
		return nil, err
	}
	return &WorkforceView{
		BySeniority: bySeniority,
		ByLocation:  byLocation,
		ByGrade:     byGrade,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// countBy groups the jobs table by one column, skipping empty values.
// column is always one of the fixed identifiers above, never user input.
func (s *Service) countBy(ctx context.Context, column string) ([]CountStat, error) {
	var rows []CountStat
	err := s.db.WithContext(ctx).Model(&domain.Job{}).
		Select(column+" AS label, COUNT(*) AS count").
		Where(column+" <> ''").
		Group(column).
		Order("count DESC, label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count by %s: %w", column, err)
	}
	return rows, nil
}

func (s *Service) computeSkills(ctx context.Context) (*SkillsView, error) {
	// skill_domains is a JSON array column, so the tally runs in Go
	// over one column scan instead of in SQL.
	var blobs []domain.StringArray
	err := s.db.WithContext(ctx).Model(&domain.Job{}).
		Where("skill_domains <> '' AND skill_domains IS NOT NULL").
		Pluck("skill_domains", &blobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute skills: %w", err)
	}
	counts := map[string]int64{}
	for _, domains := range blobs {
		for _, d := range domains {
			counts[d]++
		}
	}
	out := make([]CountStat, 0, len(counts))
	for label, count := range counts {
		out = append(out, CountStat{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return &SkillsView{Domains: out, GeneratedAt: s.now().UTC()}, nil
}

func (s *Service) computeCompetitive(ctx context.Context) (*CompetitiveView, error) {
	type row struct {
		Category      string
		Count         int64
		AvgWindowDays float64
		AvgDaysLeft   float64
		UrgentCount   int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&domain.Job{}).
		Select(`primary_category AS category,
			COUNT(*) AS count,
			COALESCE(AVG(application_window_days), 0) AS avg_window_days,
			COALESCE(AVG(days_remaining), 0) AS avg_days_left,
			SUM(CASE WHEN urgency = ? THEN 1 ELSE 0 END) AS urgent_count`,
			domain.UrgencyUrgent).
		Where("status IN ?", []domain.JobStatus{domain.JobStatusActive, domain.JobStatusClosingSoon}).
		Group("primary_category").
		Order("avg_days_left ASC, primary_category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute competitive view: %w", err)
	}
	out := make([]CompetitiveStat, 0, len(rows))
	for _, r := range rows {
		stat := CompetitiveStat{
			Category:      r.Category,
			Count:         r.Count,
			AvgWindowDays: r.AvgWindowDays,
			AvgDaysLeft:   r.AvgDaysLeft,
		}
		if r.Count > 0 {
			stat.UrgentShare = float64(r.UrgentCount) / float64(r.Count)
		}
		out = append(out, stat)
	}
	return &CompetitiveView{Categories: out, GeneratedAt: s.now().UTC()}, nil
}
