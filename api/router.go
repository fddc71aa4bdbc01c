package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/seoaudit/api/handler"
	"github.com/use-agent/seoaudit/api/middleware"
	"github.com/use-agent/seoaudit/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, deps handler.Deps, stats handler.StatsSource, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(stats, startTime, cfg.Audit.BatchConcurrency*2))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Single audit
	protected.POST("/audit", handler.Audit(deps))
	protected.POST("/render", handler.Render(deps.Renderer))

	// Batch
	protected.POST("/batch/audit", handler.PostBatch(deps))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
