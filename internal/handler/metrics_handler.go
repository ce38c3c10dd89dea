package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mfms/mess-api/internal/service"
	"github.com/mfms/mess-api/pkg/response"
)

// MetricsHandler exposes the aggregate metrics snapshot to managers.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler builds a new handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Summary godoc
// @Summary Aggregate runtime metrics
// @Tags Metrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
