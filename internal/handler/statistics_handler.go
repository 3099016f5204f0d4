package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/response"
	"github.com/quiznexusai/quiznexus-backend/internal/service"
)

// StatisticsHandler serves the school-wide aggregate to staff.
type StatisticsHandler struct {
	stats *service.StatisticsService
}

// NewStatisticsHandler creates a new StatisticsHandler.
func NewStatisticsHandler(stats *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// Get godoc
// GET /api/v1/statistics
// Returns the current aggregate; an empty one when no attempt has landed yet.
func (h *StatisticsHandler) Get(c *gin.Context) {
	stats, err := h.stats.Load(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if stats == nil {
		stats = model.NewAggregateStatistics()
	}

	response.Success(c, http.StatusOK, stats)
}
