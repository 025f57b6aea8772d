package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unjobhub/backend/internal/analytics"
)

// AnalyticsHandler serves the precomputed dashboard views.
type AnalyticsHandler struct {
	svc *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler.
// Parameters:
//   - svc: analytics service instance.
// Returns:
//   - *AnalyticsHandler: initialized handler.
func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Overview handles GET /api/v1/analytics/overview.
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	h.serve(c, h.svc.Overview)
}

// Categories handles GET /api/v1/analytics/categories.
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	h.serve(c, h.svc.Categories)
}

// Agencies handles GET /api/v1/analytics/agencies.
func (h *AnalyticsHandler) Agencies(c *gin.Context) {
	h.serve(c, h.svc.Agencies)
}

// Temporal handles GET /api/v1/analytics/temporal.
func (h *AnalyticsHandler) Temporal(c *gin.Context) {
	h.serve(c, h.svc.Temporal)
}

// Workforce handles GET /api/v1/analytics/workforce.
func (h *AnalyticsHandler) Workforce(c *gin.Context) {
	h.serve(c, h.svc.Workforce)
}

// Skills handles GET /api/v1/analytics/skills.
func (h *AnalyticsHandler) Skills(c *gin.Context) {
	h.serve(c, h.svc.Skills)
}

// Competitive handles GET /api/v1/analytics/competitive.
func (h *AnalyticsHandler) Competitive(c *gin.Context) {
	h.serve(c, h.svc.Competitive)
}

// serve runs one view function and writes its cached JSON blob verbatim.
func (h *AnalyticsHandler) serve(c *gin.Context, view func(ctx context.Context) (json.RawMessage, error)) {
	blob, err := view(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute analytics: " + err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "application/json", blob)
}
