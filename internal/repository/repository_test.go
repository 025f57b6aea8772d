package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/unjobhub/backend/internal/domain"
)

// newTestDB opens an isolated in-memory store with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}

func testJob(id int64, category string) domain.Job {
	deadline := time.Now().AddDate(0, 0, 10)
	return domain.Job{
		ID:                       id,
		Title:                    "Officer",
		Agency:                   "UNDP",
		DutyCountry:              "Kenya",
		Grade:                    "P3",
		ApplyUntil:               &deadline,
		PrimaryCategory:          category,
		ClassificationConfidence: 70,
		Status:                   domain.JobStatusActive,
		Urgency:                  domain.UrgencyNormal,
	}
}

func TestReplaceAllFullReload(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db, 2) // tiny batches to exercise the loop
	ctx := context.Background()

	first := []domain.Job{testJob(1, "ict-digital"), testJob(2, "finance-audit"), testJob(3, "finance-audit")}
	require.NoError(t, repo.ReplaceAll(ctx, first))

	count, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// A second reload with a different snapshot fully replaces the first.
	second := []domain.Job{testJob(10, "health-medical")}
	require.NoError(t, repo.ReplaceAll(ctx, second))

	count, err = repo.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReplaceAllEmptySnapshot(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db, 500)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []domain.Job{testJob(1, "ict-digital")}))
	require.NoError(t, repo.ReplaceAll(ctx, nil))

	count, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestURLUniqueConstraint(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := testJob(1, "ict-digital")
	a.URL = "https://jobs.example.org/1"
	require.NoError(t, db.WithContext(ctx).Create(&a).Error)

	b := testJob(2, "ict-digital")
	b.URL = "https://jobs.example.org/1"
	assert.Error(t, db.WithContext(ctx).Create(&b).Error, "duplicate non-empty url must be rejected")

	// Empty urls are exempt from the constraint.
	c := testJob(3, "ict-digital")
	d := testJob(4, "ict-digital")
	require.NoError(t, db.WithContext(ctx).Create(&c).Error)
	require.NoError(t, db.WithContext(ctx).Create(&d).Error)
}

func TestListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db, 500)
	ctx := context.Background()

	jobs := []domain.Job{
		testJob(1, "ict-digital"),
		testJob(2, "finance-audit"),
		testJob(3, "finance-audit"),
	}
	jobs[0].Title = "Software Developer"
	jobs[1].Agency = "UNICEF"
	jobs[2].Status = domain.JobStatusExpired
	require.NoError(t, repo.ReplaceAll(ctx, jobs))

	got, total, err := repo.List(ctx, JobFilter{Category: "finance-audit"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, got, 2)

	got, total, err = repo.List(ctx, JobFilter{Status: domain.JobStatusActive, Agency: "UNDP"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].ID)

	got, total, err = repo.List(ctx, JobFilter{Search: "software"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "Software Developer", got[0].Title)

	// Pagination: page size 2 over 3 rows.
	got, total, err = repo.List(ctx, JobFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, got, 1)
}

func TestFilterOptions(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db, 500)
	ctx := context.Background()

	jobs := []domain.Job{testJob(1, "ict-digital"), testJob(2, "ict-digital"), testJob(3, "finance-audit")}
	jobs[2].Agency = "UNICEF"
	require.NoError(t, repo.ReplaceAll(ctx, jobs))

	options, err := repo.FilterOptions(ctx)
	require.NoError(t, err)

	require.Contains(t, options, "categories")
	assert.Equal(t, []OptionCount{
		{Value: "ict-digital", Count: 2},
		{Value: "finance-audit", Count: 1},
	}, options["categories"])

	require.Contains(t, options, "agencies")
	assert.Equal(t, []OptionCount{
		{Value: "UNDP", Count: 2},
		{Value: "UNICEF", Count: 1},
	}, options["agencies"])
}

func TestCorrectCategory(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db, 500)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []domain.Job{testJob(1, "ict-digital")}))

	require.NoError(t, repo.CorrectCategory(ctx, 1, "data-analytics", "analyst@example.org"))

	job, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "data-analytics", job.PrimaryCategory)
	assert.Equal(t, 100, job.ClassificationConfidence)
	assert.True(t, job.UserCorrected)
	assert.Equal(t, "analyst@example.org", job.CorrectedBy)
	require.NotNil(t, job.CorrectedAt)

	assert.ErrorIs(t, repo.CorrectCategory(ctx, 999, "x", "y"), gorm.ErrRecordNotFound)
}

func TestCacheTTLBoundary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := t0
	repo := NewCacheRepository(db).WithClock(func() time.Time { return clock })

	require.NoError(t, repo.Put(ctx, "overview", `{"total":5}`, 24*time.Hour))

	// Fresh one minute before expiry.
	clock = t0.Add(23*time.Hour + 59*time.Minute)
	data, err := repo.Get(ctx, "overview")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":5}`, data)

	// Stale one minute after expiry.
	clock = t0.Add(24*time.Hour + 1*time.Minute)
	_, err = repo.Get(ctx, "overview")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCachePutOverwrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewCacheRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "overview", `{"total":1}`, time.Hour))
	require.NoError(t, repo.Put(ctx, "overview", `{"total":2}`, time.Hour))

	data, err := repo.Get(ctx, "overview")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":2}`, data)
}

func TestCacheDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t0 := time.Now()
	clock := t0
	repo := NewCacheRepository(db).WithClock(func() time.Time { return clock })

	require.NoError(t, repo.Put(ctx, "old", "{}", time.Minute))
	require.NoError(t, repo.Put(ctx, "new", "{}", time.Hour))

	clock = t0.Add(30 * time.Minute)
	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = repo.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestSyncMetadataLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRepository(db)
	ctx := context.Background()

	meta, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusNeverSynced, meta.Status)

	require.NoError(t, repo.MarkSyncing(ctx))
	meta, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSyncing, meta.Status)

	require.NoError(t, repo.MarkCompleted(ctx, 42, 1500*time.Millisecond))
	meta, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusCompleted, meta.Status)
	assert.Equal(t, 42, meta.TotalJobs)
	assert.EqualValues(t, 1500, meta.SyncDurationMs)
	require.NotNil(t, meta.LastSyncAt)

	require.NoError(t, repo.MarkFailed(ctx, "source unreachable"))
	meta, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusFailed, meta.Status)
	assert.Equal(t, "source unreachable", meta.LastError)
}
