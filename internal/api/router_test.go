package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/unjobhub/backend/internal/analytics"
	"github.com/unjobhub/backend/internal/classifier"
	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/publisher"
	"github.com/unjobhub/backend/internal/repository"
	"github.com/unjobhub/backend/internal/service"
)

type fixedSource struct {
	records []domain.RawJob
}

func (s *fixedSource) Name() string { return "fixed" }

func (s *fixedSource) FetchAll(_ context.Context) ([]domain.RawJob, error) {
	return s.records, nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	jobs   *repository.JobRepository
	sync   *repository.SyncRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.Migrate(db))

	jobs := repository.NewJobRepository(db, 500)
	syncMeta := repository.NewSyncRepository(db)
	cache := repository.NewCacheRepository(db)
	analyticsSvc := analytics.NewService(db, cache, analytics.DefaultTTL, nil)
	pub := publisher.NewWithDB(nil, 500, nil)
	engine := classifier.NewEngine(classifier.DefaultTaxonomy())
	syncSvc := service.NewSyncService(&fixedSource{}, engine, jobs, syncMeta, analyticsSvc, pub, nil, "", nil)

	cfg := &config.ServerConfig{Mode: "test", CORS: config.CORSConfig{AllowAllOrigins: true}}
	router := SetupRouter(db, jobs, analyticsSvc, syncSvc, cfg, nil)

	return &testEnv{router: router, db: db, jobs: jobs, sync: syncMeta}
}

func (e *testEnv) seed(t *testing.T, job domain.Job) {
	t.Helper()
	require.NoError(t, e.db.Create(&job).Error)
}

func (e *testEnv) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func seedJob(id int64, title, category string) domain.Job {
	deadline := time.Now().AddDate(0, 0, 10)
	return domain.Job{
		ID:                       id,
		Title:                    title,
		Agency:                   "UNDP",
		Grade:                    "P3",
		ApplyUntil:               &deadline,
		PrimaryCategory:          category,
		ClassificationConfidence: 70,
		Status:                   domain.JobStatusActive,
		Urgency:                  domain.UrgencyNormal,
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListJobsWithFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, seedJob(1, "Finance Officer", "finance-audit"))
	env.seed(t, seedJob(2, "Programme Officer", "programme-management"))

	w := env.request(http.MethodGet, "/api/v1/jobs?category=finance-audit", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Jobs  []domain.Job `json:"jobs"`
		Total int64        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "Finance Officer", resp.Jobs[0].Title)
}

func TestGetJobNotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(http.MethodGet, "/api/v1/jobs/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobInvalidID(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(http.MethodGet, "/api/v1/jobs/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilterOptionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, seedJob(1, "Finance Officer", "finance-audit"))

	w := env.request(http.MethodGet, "/api/v1/jobs/filters", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string][]repository.OptionCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "categories")
	assert.Contains(t, resp, "agencies")
}

func TestCorrectCategoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, seedJob(1, "Finance Officer", "finance-audit"))

	w := env.request(http.MethodPost, "/api/v1/jobs/1/category",
		`{"category":"programme-management","corrected_by":"analyst@example.org"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var job domain.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "programme-management", job.PrimaryCategory)
	assert.Equal(t, 100, job.ClassificationConfidence)
	assert.True(t, job.UserCorrected)
}

func TestCorrectCategoryRequiresBody(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, seedJob(1, "Finance Officer", "finance-audit"))

	w := env.request(http.MethodPost, "/api/v1/jobs/1/category", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(http.MethodGet, "/api/v1/sync/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var meta domain.SyncMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, domain.SyncStatusNeverSynced, meta.Status)
}

func TestSyncTriggerConflictsWhileRunning(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.sync.MarkSyncing(context.Background()))

	w := env.request(http.MethodPost, "/api/v1/sync", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSyncTriggerRunsPipeline(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(http.MethodPost, "/api/v1/sync", "")
	require.Equal(t, http.StatusOK, w.Code)

	meta, err := env.sync.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusCompleted, meta.Status)
}

func TestAnalyticsOverviewEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, seedJob(1, "Finance Officer", "finance-audit"))

	w := env.request(http.MethodGet, "/api/v1/analytics/overview", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view analytics.OverviewView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.EqualValues(t, 1, view.TotalJobs)
}
