package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Status degrades once more than maxActive renders are in flight.
func Health(src StatsSource, startTime time.Time, maxActive int) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := src.Stats()

		status := "healthy"
		if maxActive > 0 && stats.ActiveRenders > maxActive {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Version:   config.Version,
		})
	}
}
