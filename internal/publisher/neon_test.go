package publisher

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

func newDownstreamDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&DashboardJob{}))
	return db
}

func snapshot() []domain.Job {
	deadline := time.Now().AddDate(0, 0, 5)
	return []domain.Job{
		{ID: 1, Title: "Chief Information Security Officer", Agency: "UNDP",
			PrimaryCategory: "leadership-executive", Status: domain.JobStatusActive, ApplyUntil: &deadline},
		{ID: 2, Title: "Finance Analyst", Agency: "UNICEF",
			PrimaryCategory: "finance-audit", Status: domain.JobStatusActive},
	}
}

func TestPublishUpsertsRows(t *testing.T) {
	db := newDownstreamDB(t)
	pub := NewWithDB(db, 500, nil)
	ctx := context.Background()

	result, err := pub.Publish(ctx, snapshot())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RowsWritten)
	assert.Zero(t, result.FailedBatches)

	var row DashboardJob
	require.NoError(t, db.First(&row, "id = ?", 1).Error)
	assert.Equal(t, "leadership-executive", row.SectoralCategory)
	assert.Equal(t, "active", row.Status)
}

func TestPublishIdempotentRepublish(t *testing.T) {
	db := newDownstreamDB(t)
	pub := NewWithDB(db, 500, nil)
	ctx := context.Background()

	jobs := snapshot()
	_, err := pub.Publish(ctx, jobs)
	require.NoError(t, err)
	_, err = pub.Publish(ctx, jobs)
	require.NoError(t, err)

	count, err := pub.CountRows(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(jobs), count, "republish must not create duplicate ids")
}

func TestPublishBatching(t *testing.T) {
	db := newDownstreamDB(t)
	pub := NewWithDB(db, 1, nil) // one row per batch

	jobs := snapshot()
	result, err := pub.Publish(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsWritten)
}

func TestPublishIsolatesFailedBatches(t *testing.T) {
	db := newDownstreamDB(t)
	pub := NewWithDB(db, 1, nil) // one row per batch
	ctx := context.Background()

	// Every insert now fails; each batch must be counted and skipped
	// without aborting the run or surfacing an error.
	require.NoError(t, db.Migrator().DropTable(&DashboardJob{}))

	result, err := pub.Publish(ctx, snapshot())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.RowsWritten)
	assert.Equal(t, 2, result.FailedBatches)
}

func TestUnconfiguredPublisherIsNoOp(t *testing.T) {
	pub := NewWithDB(nil, 500, nil)

	result, err := pub.Publish(context.Background(), snapshot())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.RowsWritten)
	assert.Zero(t, result.FailedBatches)
	assert.False(t, pub.Configured())
}

func TestPublishUpdatesMutableColumns(t *testing.T) {
	db := newDownstreamDB(t)
	pub := NewWithDB(db, 500, nil)
	ctx := context.Background()

	jobs := snapshot()
	_, err := pub.Publish(ctx, jobs)
	require.NoError(t, err)

	jobs[0].PrimaryCategory = "ict-digital"
	jobs[0].Status = domain.JobStatusClosingSoon
	_, err = pub.Publish(ctx, jobs)
	require.NoError(t, err)

	var row DashboardJob
	require.NoError(t, db.First(&row, "id = ?", 1).Error)
	assert.Equal(t, "ict-digital", row.SectoralCategory)
	assert.Equal(t, "closing_soon", row.Status)
}
