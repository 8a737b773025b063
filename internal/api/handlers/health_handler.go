package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/solrisk-service/solrisk_service/pkg/logger"
)

// Version info, set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Pinger is anything that can verify its backing connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers serves liveness, readiness and metrics endpoints.
type HealthHandlers struct {
	db     *sqlx.DB
	cache  Pinger
	logger *logger.Logger
}

// NewHealthHandlers creates health check handlers. cache may be nil.
func NewHealthHandlers(db *sqlx.DB, cache Pinger, log *logger.Logger) *HealthHandlers {
	return &HealthHandlers{
		db:     db,
		cache:  cache,
		logger: log,
	}
}

// Health reports overall service health with per-dependency detail.
func (h *HealthHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports whether the service can accept traffic.
func (h *HealthHandlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Live is the liveness probe.
func (h *HealthHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Version reports build information.
func (h *HealthHandlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"build_time": BuildTime,
	})
}

// Metrics exposes the Prometheus scrape endpoint.
func (h *HealthHandlers) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
