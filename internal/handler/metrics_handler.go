package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/service"
)

type catalogStatus interface {
	Ready() bool
	Status() dto.CatalogStatus
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	catalog catalogStatus
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, catalog *service.CatalogService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, catalog: catalog}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports liveness.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 until a catalog snapshot has been loaded.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.catalog == nil || !h.catalog.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "catalog": h.catalog.Status()})
}
