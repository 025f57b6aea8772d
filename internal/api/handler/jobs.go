package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/repository"
)

// JobsHandler handles posting browse and correction endpoints.
type JobsHandler struct {
	jobs *repository.JobRepository
}

// NewJobsHandler creates a new jobs handler.
// Parameters:
//   - jobs: jobs repository instance.
// Returns:
//   - *JobsHandler: initialized handler.
func NewJobsHandler(jobs *repository.JobRepository) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// List handles GET /api/v1/jobs.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobsHandler) List(c *gin.Context) {
	filter := repository.JobFilter{
		Category: c.Query("category"),
		Agency:   c.Query("agency"),
		Search:   c.Query("search"),
		Status:   domain.JobStatus(c.Query("status")),
		Country:  c.Query("country"),
		Grade:    c.Query("grade"),
		Sort:     c.Query("sort"),
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}

	jobs, total, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Get handles GET /api/v1/jobs/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job id",
		})
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// FilterOptions handles GET /api/v1/jobs/filters.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobsHandler) FilterOptions(c *gin.Context) {
	options, err := h.jobs.FilterOptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load filter options: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, options)
}

// correctCategoryRequest is the body of POST /api/v1/jobs/:id/category.
type correctCategoryRequest struct {
	Category    string `json:"category" binding:"required"`
	CorrectedBy string `json:"corrected_by"`
}

// CorrectCategory handles POST /api/v1/jobs/:id/category. The correction
// sets confidence to 100 and records the audit trail; it survives until
// the next full sync rebuilds the table.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobsHandler) CorrectCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job id",
		})
		return
	}

	var req correctCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	err = h.jobs.CorrectCategory(c.Request.Context(), id, req.Category, req.CorrectedBy)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to apply correction: " + err.Error(),
		})
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load corrected job: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, job)
}
