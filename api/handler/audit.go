package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/seoaudit/cache"
	"github.com/use-agent/seoaudit/delivery"
	"github.com/use-agent/seoaudit/metrics"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

// Audit returns a handler for POST /api/v1/audit.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup when max_age > 0.
//  3. Auditor.Analyze → report.
//  4. Render markup for html/markdown formats.
//  5. Queue delivery to notify destinations.
func Audit(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.AuditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AuditResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		resp := models.AuditResponse{Success: true}

		// ── 2. Cache lookup ─────────────────────────────────────────
		var rep *models.Report
		if d.Cache != nil && req.MaxAge > 0 {
			cached, hit := d.Cache.Get(c.Request.Context(), cache.Key(req.URL), time.Duration(req.MaxAge)*time.Second)
			if hit {
				rep = cached
				resp.CacheStatus = "hit"
				metrics.CacheLookups.WithLabelValues("hit").Inc()
			} else {
				resp.CacheStatus = "miss"
				metrics.CacheLookups.WithLabelValues("miss").Inc()
			}
		}

		// ── 3. Audit ────────────────────────────────────────────────
		if rep == nil {
			fresh, err := d.Auditor.Analyze(c.Request.Context(), req.URL)
			if err != nil {
				respondError(c, err, models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				})
				return
			}
			rep = fresh
			if d.Cache != nil {
				d.Cache.Set(c.Request.Context(), cache.Key(req.URL), rep)
			}
		}
		resp.Report = rep

		// ── 4. Render ───────────────────────────────────────────────
		rendered, err := renderAs(d.Renderer, rep, req.Format)
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}
		resp.Rendered = rendered

		// ── 5. Delivery ─────────────────────────────────────────────
		resp.Delivery = queueDelivery(d.Notifier, rep, req.Notify)

		resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		c.JSON(http.StatusOK, resp)
	}
}

// renderAs returns the report markup for format, or "" for json.
func renderAs(r *report.Renderer, rep *models.Report, format string) (string, error) {
	switch format {
	case "html":
		return r.HTML(rep), nil
	case "markdown":
		var buf bytes.Buffer
		if err := r.WriteMarkdown(&buf, rep); err != nil {
			return "", models.NewAuditError(models.ErrCodeInternal, "render markdown", err)
		}
		return buf.String(), nil
	default:
		return "", nil
	}
}

// queueDelivery hands rep to the notifier and describes the outcome for the
// response: "" when nothing was requested, "queued", "rejected" for a
// webhook target the server refuses to call, or "unavailable".
func queueDelivery(n Notifier, rep *models.Report, to *models.Notify) string {
	if to.Empty() {
		return ""
	}
	if n == nil {
		return "unavailable"
	}
	if err := n.Notify(rep, to); err != nil {
		slog.Warn("delivery not queued", "url", rep.URL, "error", err)
		if errors.Is(err, delivery.ErrWebhookTarget) {
			return "rejected"
		}
		return "unavailable"
	}
	return "queued"
}
