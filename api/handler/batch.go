package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/seoaudit/models"
	"golang.org/x/sync/errgroup"
)

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

// batchTTL is how long a batch job stays queryable after creation.
const batchTTL = time.Hour

func init() {
	// Background goroutine to expire batch jobs older than batchTTL.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-batchTTL).Unix()
			batchStore.Range(func(key, value any) bool {
				job := value.(*batchJob)
				if job.createdAt() < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// batchJob guards a BatchJob shared between the workers and GetBatch.
type batchJob struct {
	mu  sync.Mutex
	job models.BatchJob
}

func (b *batchJob) createdAt() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.job.CreatedAt
}

func (b *batchJob) record(idx int, res *models.BatchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.job.Results[idx] = res
	b.job.Completed++
}

func (b *batchJob) finish() (status string, failed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.job.Results {
		if r != nil && r.Error != nil {
			failed++
		}
	}
	switch {
	case failed == b.job.Total:
		b.job.Status = models.BatchFailed
	case failed > 0:
		b.job.Status = models.BatchPartial
	default:
		b.job.Status = models.BatchCompleted
	}
	return b.job.Status, failed
}

func (b *batchJob) snapshot() models.BatchStatusResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	results := make([]*models.BatchResult, len(b.job.Results))
	copy(results, b.job.Results)
	return models.BatchStatusResponse{
		ID:        b.job.ID,
		Status:    b.job.Status,
		Completed: b.job.Completed,
		Total:     b.job.Total,
		Results:   results,
	}
}

// PostBatch returns a handler for POST /api/v1/batch/audit.
// It validates the request, creates a batch job, and audits every URL in the
// background with at most d.BatchConcurrency audits running at once.
func PostBatch(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		jobID := "batch-" + randomID()
		job := &batchJob{job: models.BatchJob{
			ID:        jobID,
			Status:    models.BatchProcessing,
			Total:     len(req.URLs),
			Results:   make([]*models.BatchResult, len(req.URLs)),
			CreatedAt: time.Now().Unix(),
		}}
		batchStore.Store(jobID, job)

		go runBatch(d, job, req)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     jobID,
			Status: models.BatchProcessing,
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, ok := batchStore.Load(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, val.(*batchJob).snapshot())
	}
}

// runBatch audits all URLs of a job. A failed URL never aborts its siblings.
func runBatch(d Deps, job *batchJob, req models.BatchRequest) {
	limit := d.BatchConcurrency
	if limit <= 0 {
		limit = 4
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, rawURL := range req.URLs {
		g.Go(func() error {
			res := auditOne(d, rawURL)
			if res.Report != nil {
				queueDelivery(d.Notifier, res.Report, req.Notify)
			}
			job.record(i, res)
			return nil
		})
	}
	_ = g.Wait()

	status, failed := job.finish()
	slog.Info("batch job finished",
		"id", job.job.ID,
		"status", status,
		"failed", failed,
		"total", len(req.URLs),
	)
}

func auditOne(d Deps, targetURL string) *models.BatchResult {
	rep, err := d.Auditor.Analyze(context.Background(), targetURL)
	if err != nil {
		return &models.BatchResult{URL: targetURL, Error: models.AsAuditError(err).ToDetail()}
	}
	return &models.BatchResult{URL: targetURL, Report: rep}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
