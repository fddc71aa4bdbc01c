package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

// Render returns a handler for POST /api/v1/render. It turns a report the
// caller already holds into HTML or Markdown without auditing anything.
func Render(r *report.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RenderRequest
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

		if req.Format == "markdown" {
			var buf bytes.Buffer
			if err := r.WriteMarkdown(&buf, req.Report); err != nil {
				respondError(c, models.NewAuditError(models.ErrCodeInternal, "render markdown", err), models.TimingInfo{})
				return
			}
			c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(r.HTML(req.Report)))
	}
}
