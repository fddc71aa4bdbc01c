// Package report renders audit reports for people: an HTML email, its
// plain-text alternative, and a Markdown document.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/models"
)

// Score band classes.
const (
	BandGood     = "good"
	BandWarning  = "warning"
	BandCritical = "critical"
)

// Options controls report presentation. The bands only affect styling and
// are independent of how the score is computed.
type Options struct {
	GoodMin      int // scores >= GoodMin are "good"
	WarningMin   int // scores >= WarningMin are "warning", below are "critical"
	ProductName  string
	DashboardURL string // optional; the footer link is omitted when empty
}

// DefaultOptions returns the stock bands and product name.
func DefaultOptions() Options {
	return Options{
		GoodMin:     80,
		WarningMin:  60,
		ProductName: "Daily SEO Assistant",
	}
}

// Renderer renders reports. It is stateless apart from its options and safe
// for concurrent use.
type Renderer struct {
	opts Options
	md   *converter.Converter
}

// New creates a Renderer. Band thresholds are used exactly as given, so a
// WarningMin of 0 disables the critical band. Only an empty ProductName
// falls back to the default.
func New(opts Options) *Renderer {
	if opts.ProductName == "" {
		opts.ProductName = DefaultOptions().ProductName
	}
	return &Renderer{opts: opts, md: newMarkdownConverter()}
}

// Validate rejects band thresholds that cannot describe ordered bands.
func (o Options) Validate() error {
	if o.WarningMin < 0 || o.GoodMin < 0 {
		return fmt.Errorf("report: band thresholds must not be negative (good %d, warning %d)", o.GoodMin, o.WarningMin)
	}
	if o.WarningMin > o.GoodMin {
		return fmt.Errorf("report: warning band minimum %d exceeds good band minimum %d", o.WarningMin, o.GoodMin)
	}
	return nil
}

// FromConfig builds a validated Renderer from the report configuration.
func FromConfig(cfg config.ReportConfig) (*Renderer, error) {
	opts := Options{
		GoodMin:      cfg.GoodMin,
		WarningMin:   cfg.WarningMin,
		ProductName:  cfg.ProductName,
		DashboardURL: cfg.DashboardURL,
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return New(opts), nil
}

var defaultRenderer = New(DefaultOptions())

// RenderEmail renders rep as a self-contained HTML email with the default
// options.
func RenderEmail(rep *models.Report) string {
	return defaultRenderer.HTML(rep)
}

// Band classifies a score for presentation.
func (r *Renderer) Band(score int) string {
	switch {
	case score >= r.opts.GoodMin:
		return BandGood
	case score >= r.opts.WarningMin:
		return BandWarning
	default:
		return BandCritical
	}
}

type emailView struct {
	URL          string
	Score        int
	Band         string
	Critical     []models.Issue
	Warnings     []models.Issue
	Info         []models.Issue
	Clean        bool
	Metrics      models.Metrics
	ProductName  string
	Generated    string
	DashboardURL string
}

// HTML renders rep as a self-contained HTML document. Output depends only on
// rep and the renderer options: the footer date comes from the report, not
// the wall clock. Page-controlled text is escaped.
func (r *Renderer) HTML(rep *models.Report) string {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, r.view(rep)); err != nil {
		// The template only reads plain fields; failure here is a bug.
		panic(fmt.Sprintf("report: render email: %v", err))
	}
	return buf.String()
}

func (r *Renderer) view(rep *models.Report) emailView {
	return emailView{
		URL:          rep.URL,
		Score:        rep.Score,
		Band:         r.Band(rep.Score),
		Critical:     rep.IssuesBySeverity(models.SeverityCritical),
		Warnings:     rep.IssuesBySeverity(models.SeverityWarning),
		Info:         rep.IssuesBySeverity(models.SeverityInfo),
		Clean:        len(rep.Issues) == 0,
		Metrics:      rep.Metrics,
		ProductName:  r.opts.ProductName,
		Generated:    formatDate(rep.GeneratedAt),
		DashboardURL: r.opts.DashboardURL,
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format("January 2, 2006")
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>SEO Report for {{.URL}}</title>
<style>
body { font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 8px; text-align: center; }
.score { font-size: 48px; font-weight: bold; margin: 10px 0; }
.score.good { color: #10b981; }
.score.warning { color: #f59e0b; }
.score.critical { color: #ef4444; }
.section { margin: 20px 0; padding: 15px; border-radius: 8px; }
.critical { background-color: #fef2f2; border-left: 4px solid #ef4444; }
.warning { background-color: #fffbeb; border-left: 4px solid #f59e0b; }
.info { background-color: #eff6ff; border-left: 4px solid #3b82f6; }
.good { background-color: #f0fdf4; border-left: 4px solid #10b981; }
.issue { margin: 10px 0; }
.issue-title { font-weight: bold; margin-bottom: 5px; }
.metrics { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 15px; margin: 20px 0; }
.metric { text-align: center; padding: 10px; background: #f8fafc; border-radius: 8px; }
.metric-value { font-size: 24px; font-weight: bold; color: #1e40af; }
</style>
</head>
<body>
<div class="header">
<h1>🕷️ Daily SEO Report</h1>
<div>Website: {{.URL}}</div>
<div class="score {{.Band}}">{{.Score}}/100</div>
</div>
{{- if .Critical}}
<div class="section critical">
<h2>🚨 Critical Issues (Fix Immediately)</h2>
{{- range .Critical}}
{{template "issue" .}}
{{- end}}
</div>
{{- end}}
{{- if .Warnings}}
<div class="section warning">
<h2>⚠️ Warnings (Recommended Fixes)</h2>
{{- range .Warnings}}
{{template "issue" .}}
{{- end}}
</div>
{{- end}}
{{- if .Info}}
<div class="section info">
<h2>💡 Suggestions</h2>
{{- range .Info}}
{{template "issue" .}}
{{- end}}
</div>
{{- end}}
{{- if .Clean}}
<div class="section good">
<h2>✅ Great Job!</h2>
<p>No significant SEO issues found. Your site is in good shape!</p>
</div>
{{- end}}
<div class="section">
<h2>📊 Site Metrics</h2>
<div class="metrics">
<div class="metric"><div class="metric-value">{{.Metrics.WordCount}}</div><div>Words</div></div>
<div class="metric"><div class="metric-value">{{.Metrics.LoadTimeMillis}}ms</div><div>Load Time</div></div>
<div class="metric"><div class="metric-value">{{.Metrics.TitleLength}}</div><div>Title Length</div></div>
<div class="metric"><div class="metric-value">{{.Metrics.H1Count}}</div><div>H1 Tags</div></div>
<div class="metric"><div class="metric-value">{{.Metrics.ImageCount}}</div><div>Images</div></div>
</div>
</div>
<div class="section" style="text-align: center; background: #f8fafc;">
<p><strong>🕷️ {{.ProductName}}</strong></p>
<p>Generated on {{.Generated}}</p>
{{- if .DashboardURL}}
<p><a href="{{.DashboardURL}}">View Dashboard</a></p>
{{- end}}
</div>
</body>
</html>
{{define "issue"}}<div class="issue">
<div class="issue-title">{{.Title}}</div>
<div>{{.Description}}</div>
<div><strong>Fix:</strong> {{.Remediation}}</div>
</div>{{end}}`))
