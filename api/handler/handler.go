// Package handler implements the HTTP API endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/seoaudit/cache"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

// Auditor produces a report for one URL.
type Auditor interface {
	Analyze(ctx context.Context, url string) (*models.Report, error)
}

// Notifier queues delivery of a finished report.
type Notifier interface {
	Notify(rep *models.Report, to *models.Notify) error
}

// StatsSource reports renderer activity for the health endpoint.
type StatsSource interface {
	Stats() models.PoolStats
}

// Deps are the collaborators shared by the audit endpoints.
type Deps struct {
	Auditor  Auditor
	Renderer *report.Renderer

	// Cache and Notifier are optional.
	Cache    cache.Store
	Notifier Notifier

	// BatchConcurrency caps parallel audits within one batch job.
	BatchConcurrency int
}

// respondError maps an AuditError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	auditErr := models.AsAuditError(err)

	c.JSON(mapErrorToStatus(auditErr), models.AuditResponse{
		Success: false,
		Error:   auditErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.AuditError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeSiteUnreachable:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
