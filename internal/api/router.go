package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unjobhub/backend/internal/analytics"
	"github.com/unjobhub/backend/internal/api/handler"
	"github.com/unjobhub/backend/internal/api/middleware"
	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/logger"
	"github.com/unjobhub/backend/internal/repository"
	"github.com/unjobhub/backend/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	db *gorm.DB,
	jobs *repository.JobRepository,
	analyticsSvc *analytics.Service,
	syncSvc *service.SyncService,
	cfg *config.ServerConfig,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(db)
	jobsHandler := handler.NewJobsHandler(jobs)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Jobs
		v1.GET("/jobs", jobsHandler.List)
		v1.GET("/jobs/filters", jobsHandler.FilterOptions)
		v1.GET("/jobs/:id", jobsHandler.Get)
		v1.POST("/jobs/:id/category", jobsHandler.CorrectCategory)

		// Sync
		v1.GET("/sync/status", syncHandler.Status)
		v1.POST("/sync", syncHandler.Trigger)

		// Analytics
		v1.GET("/analytics/overview", analyticsHandler.Overview)
		v1.GET("/analytics/categories", analyticsHandler.Categories)
		v1.GET("/analytics/agencies", analyticsHandler.Agencies)
		v1.GET("/analytics/temporal", analyticsHandler.Temporal)
		v1.GET("/analytics/workforce", analyticsHandler.Workforce)
		v1.GET("/analytics/skills", analyticsHandler.Skills)
		v1.GET("/analytics/competitive", analyticsHandler.Competitive)
	}

	return r
}
