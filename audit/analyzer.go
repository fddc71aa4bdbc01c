// Package audit turns a URL into a scored SEO report.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/seoaudit/extractor"
	"github.com/use-agent/seoaudit/metrics"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/rules"
)

// Renderer loads a page and returns its DOM after the network settles.
// Implementations report failures as *models.AuditError.
type Renderer interface {
	Render(ctx context.Context, url string) (*models.RenderedPage, error)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCatalog replaces the default rule catalog.
func WithCatalog(c rules.Catalog) Option {
	return func(a *Analyzer) { a.catalog = c }
}

// WithClock sets the source of report timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithLogger sets the logger used for per-audit events.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// Analyzer runs the render → extract → evaluate → score pipeline.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	renderer Renderer
	catalog  rules.Catalog
	now      func() time.Time
	log      *slog.Logger
}

// New creates an Analyzer around renderer.
func New(renderer Renderer, opts ...Option) *Analyzer {
	a := &Analyzer{
		renderer: renderer,
		catalog:  rules.Default(),
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze audits one page. On any failure it returns a *models.AuditError
// and no report.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*models.Report, error) {
	start := time.Now()

	target, err := ValidateURL(rawURL)
	if err != nil {
		observe(err, start)
		return nil, err
	}

	a.log.Info("audit started", "url", target)

	page, err := a.renderer.Render(ctx, target)
	if err != nil {
		a.log.Warn("audit failed", "url", target, "error", err)
		observe(err, start)
		return nil, err
	}

	signals := extractor.Extract(page)
	issues := a.catalog.Evaluate(signals)
	score := Score(issues)
	rep := Assemble(target, signals, issues, score, a.now())

	a.log.Info("audit finished",
		"url", target,
		"score", score,
		"issues", len(issues),
		"load_ms", signals.LoadTimeMillis,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	observe(nil, start)
	recordReport(rep)
	return rep, nil
}

// Assemble builds the report for one audited page. The issue slice is copied
// so the report does not alias caller memory.
func Assemble(pageURL string, s *models.Signals, issues []models.Issue, score int, at time.Time) *models.Report {
	own := make([]models.Issue, len(issues))
	copy(own, issues)
	return &models.Report{
		URL:         pageURL,
		GeneratedAt: at,
		Score:       score,
		Issues:      own,
		Metrics:     models.MetricsFrom(s),
	}
}

// ValidateURL accepts absolute http(s) URLs with a host and returns them
// trimmed.
func ValidateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", models.NewAuditError(models.ErrCodeInvalidInput, "unparsable url", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", models.NewAuditError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unsupported url scheme %q", u.Scheme), nil)
	}
	if u.Host == "" {
		return "", models.NewAuditError(models.ErrCodeInvalidInput, "url has no host", nil)
	}
	return trimmed, nil
}

func observe(err error, start time.Time) {
	metrics.AuditDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = models.AsAuditError(err).Code
	}
	metrics.AuditsTotal.WithLabelValues(outcome).Inc()
}

func recordReport(rep *models.Report) {
	metrics.Scores.Observe(float64(rep.Score))
	for _, is := range rep.Issues {
		metrics.IssuesTotal.WithLabelValues(string(is.Severity)).Inc()
	}
}
