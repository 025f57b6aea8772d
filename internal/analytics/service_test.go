package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, now func() time.Time) *Service {
	t.Helper()
	cache := repository.NewCacheRepository(db).WithClock(now)
	return NewService(db, cache, DefaultTTL, nil).WithClock(now)
}

func seedJobs(t *testing.T, db *gorm.DB, jobs []domain.Job) {
	t.Helper()
	require.NoError(t, db.Create(&jobs).Error)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleJobs() []domain.Job {
	posted := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	postedMarch := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	soon := testNow.AddDate(0, 0, 2)
	later := testNow.AddDate(0, 0, 20)
	return []domain.Job{
		{
			ID: 1, Title: "Programme Officer", Agency: "UNDP",
			Grade: "P3", SeniorityLevel: "mid", LocationType: domain.LocationField,
			PostedAt: &posted, ApplyUntil: &later,
			PrimaryCategory: "programme-management", ClassificationConfidence: 80,
			SkillDomains:          domain.StringArray{"technical", "management"},
			Status:                domain.JobStatusActive, Urgency: domain.UrgencyNormal,
			DaysRemaining: 20, ApplicationWindowDays: 37,
		},
		{
			ID: 2, Title: "Finance Assistant", Agency: "UNDP",
			Grade: "G5", SeniorityLevel: "support", LocationType: domain.LocationHQ,
			PostedAt: &postedMarch, ApplyUntil: &soon,
			PrimaryCategory: "finance-audit", ClassificationConfidence: 60,
			SkillDomains:          domain.StringArray{"technical"},
			Status:                domain.JobStatusClosingSoon, Urgency: domain.UrgencyUrgent,
			DaysRemaining: 2, ApplicationWindowDays: 5,
		},
		{
			ID: 3, Title: "Data Analyst", Agency: "UNICEF",
			Grade: "P2", SeniorityLevel: "entry", LocationType: domain.LocationRemote,
			PostedAt: &posted, ApplyUntil: &later,
			PrimaryCategory: "programme-management", ClassificationConfidence: 70,
			Status: domain.JobStatusActive, Urgency: domain.UrgencyNormal,
			DaysRemaining: 20, ApplicationWindowDays: 37,
		},
		{
			ID: 4, Title: "Archivist", Agency: "UNESCO",
			Grade: "P1", SeniorityLevel: "entry", LocationType: domain.LocationHQ,
			PrimaryCategory: "operations-administration", ClassificationConfidence: 25,
			Status: domain.JobStatusArchived, Archived: true, Urgency: domain.UrgencyExtended,
		},
	}
}

func TestOverviewAggregates(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))

	blob, err := svc.Overview(context.Background())
	require.NoError(t, err)

	var v OverviewView
	require.NoError(t, json.Unmarshal(blob, &v))
	assert.EqualValues(t, 4, v.TotalJobs)
	assert.EqualValues(t, 2, v.ActiveJobs)
	assert.EqualValues(t, 1, v.ClosingSoon)
	assert.EqualValues(t, 1, v.Archived)
	assert.EqualValues(t, 0, v.Expired)
	assert.EqualValues(t, 1, v.UrgentJobs)
	assert.EqualValues(t, 1, v.RemoteJobs)
	assert.EqualValues(t, 3, v.AgencyCount)
	assert.InDelta(t, 58.75, v.AvgConfidence, 0.01)
}

func TestCategoriesBreakdown(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))

	blob, err := svc.Categories(context.Background())
	require.NoError(t, err)

	var v CategoriesView
	require.NoError(t, json.Unmarshal(blob, &v))
	require.Len(t, v.Categories, 3)

	top := v.Categories[0]
	assert.Equal(t, "programme-management", top.Category)
	assert.EqualValues(t, 2, top.Count)
	assert.EqualValues(t, 2, top.ActiveCount)
	assert.InDelta(t, 75, top.AvgConfidence, 0.01)
	assert.InDelta(t, 0.5, top.Share, 0.001)

	// Equal counts fall back to alphabetical order.
	assert.Equal(t, "finance-audit", v.Categories[1].Category)
	assert.Equal(t, "operations-administration", v.Categories[2].Category)
}

func TestAgenciesBreakdown(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))

	blob, err := svc.Agencies(context.Background())
	require.NoError(t, err)

	var v AgenciesView
	require.NoError(t, json.Unmarshal(blob, &v))
	require.Len(t, v.Agencies, 3)
	assert.Equal(t, "UNDP", v.Agencies[0].Agency)
	assert.EqualValues(t, 2, v.Agencies[0].Count)
	assert.EqualValues(t, 1, v.Agencies[0].ActiveCount)
	assert.InDelta(t, 21, v.Agencies[0].AvgWindowDays, 0.01)
}

func TestTemporalBucketsByMonth(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))

	blob, err := svc.Temporal(context.Background())
	require.NoError(t, err)

	var v TemporalView
	require.NoError(t, json.Unmarshal(blob, &v))
	require.Len(t, v.Buckets, 2)
	assert.Equal(t, "2026-02", v.Buckets[0].Month)
	assert.EqualValues(t, 2, v.Buckets[0].Posted)
	assert.Equal(t, "2026-03", v.Buckets[1].Month)
	assert.EqualValues(t, 1, v.Buckets[1].Posted)
	assert.EqualValues(t, 3, v.Buckets[1].Deadlines)
}

func TestWorkforceComposition(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))

	blob, err := svc.Workforce(context.Background())
	require.NoError(t, err)

	var v WorkforceView
	require.NoError(t, json.Unmarshal(blob, &v))
	require.NotEmpty(t, v.BySeniority)
	assert.Equal(t, CountStat{Label: "entry", Count: 2}, v.BySeniority[0])
	require.Len(t, v.ByLocation, 3)
	assert.Equal(t, CountStat{Label: "HQ", Count: 2}, v.ByLocation[0])
	require.Len(t, v.ByGrade, 4)
}

func TestSkillsTally(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))

	blob, err := svc.Skills(context.Background())
	require.NoError(t, err)

	var v SkillsView
	require.NoError(t, json.Unmarshal(blob, &v))
	require.Len(t, v.Domains, 2)
	assert.Equal(t, CountStat{Label: "technical", Count: 2}, v.Domains[0])
	assert.Equal(t, CountStat{Label: "management", Count: 1}, v.Domains[1])
}

func TestCompetitiveExcludesClosedPostings(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))

	blob, err := svc.Competitive(context.Background())
	require.NoError(t, err)

	var v CompetitiveView
	require.NoError(t, json.Unmarshal(blob, &v))
	require.Len(t, v.Categories, 2) // archived posting's category drops out

	tightest := v.Categories[0]
	assert.Equal(t, "finance-audit", tightest.Category)
	assert.InDelta(t, 2, tightest.AvgDaysLeft, 0.01)
	assert.InDelta(t, 1, tightest.UrgentShare, 0.001)
}

func TestReadThroughServesCachedBlob(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))
	ctx := context.Background()

	first, err := svc.Overview(ctx)
	require.NoError(t, err)

	// A table change within the TTL must not be visible.
	require.NoError(t, db.Delete(&domain.Job{}, "id = ?", 1).Error)

	second, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestReadThroughRecomputesAfterTTL(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())

	now := testNow
	clock := func() time.Time { return now }
	svc := newTestService(t, db, clock)
	ctx := context.Background()

	_, err := svc.Overview(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&domain.Job{}, "id = ?", 1).Error)
	now = testNow.Add(24*time.Hour + time.Minute)

	blob, err := svc.Overview(ctx)
	require.NoError(t, err)

	var v OverviewView
	require.NoError(t, json.Unmarshal(blob, &v))
	assert.EqualValues(t, 3, v.TotalJobs)
}

func TestPrecomputeAllOverwritesFreshEntries(t *testing.T) {
	db := newTestDB(t)
	seedJobs(t, db, sampleJobs())
	svc := newTestService(t, db, fixedClock(testNow))
	ctx := context.Background()

	_, err := svc.Overview(ctx)
	require.NoError(t, err)

	// New snapshot lands, cache would still be fresh for 24h.
	require.NoError(t, db.Delete(&domain.Job{}, "id = ?", 1).Error)
	require.NoError(t, svc.PrecomputeAll(ctx))

	blob, err := svc.Overview(ctx)
	require.NoError(t, err)
	var v OverviewView
	require.NoError(t, json.Unmarshal(blob, &v))
	assert.EqualValues(t, 3, v.TotalJobs)

	// Every view key is populated.
	for _, key := range []string{KeyOverview, KeyCategories, KeyAgencies, KeyTemporal, KeyWorkforce, KeySkills, KeyCompetitive} {
		var count int64
		require.NoError(t, db.Model(&domain.AnalyticsCacheEntry{}).Where("cache_key = ?", key).Count(&count).Error)
		assert.EqualValues(t, 1, count, key)
	}
}
