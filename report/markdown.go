package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/use-agent/seoaudit/models"
)

// WriteMarkdown writes rep as a Markdown document using the default options.
func WriteMarkdown(w io.Writer, rep *models.Report) error {
	return defaultRenderer.WriteMarkdown(w, rep)
}

// WriteMarkdown writes rep as a Markdown document.
func (r *Renderer) WriteMarkdown(w io.Writer, rep *models.Report) error {
	md := markdown.NewMarkdown(w)

	r.writeHeader(md, rep)
	r.writeSummary(md, rep)
	r.writeIssues(md, rep)
	r.writeMetrics(md, rep)
	r.writeFooter(md)

	return md.Build()
}

func (r *Renderer) writeHeader(md *markdown.Markdown, rep *models.Report) {
	md.H1("SEO Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Website", rep.URL},
			{"Score", strconv.Itoa(rep.Score) + "/100 (" + r.Band(rep.Score) + ")"},
			{"Generated", formatDate(rep.GeneratedAt)},
		},
	})
	md.PlainText("")
}

func (r *Renderer) writeSummary(md *markdown.Markdown, rep *models.Report) {
	critical := rep.Count(models.SeverityCritical)
	warnings := rep.Count(models.SeverityWarning)

	switch {
	case critical > 0:
		md.Cautionf("%d critical issue(s) need to be fixed immediately.", critical)
	case warnings > 0:
		md.Warningf("%d warning(s) found. Fixing them will improve your score.", warnings)
	case len(rep.Issues) > 0:
		md.Note("Only suggestions found. Your site is in good shape!")
	default:
		md.Tip("No significant SEO issues found. Your site is in good shape!")
	}
	md.PlainText("")
}

func (r *Renderer) writeIssues(md *markdown.Markdown, rep *models.Report) {
	sections := []struct {
		severity models.Severity
		header   string
	}{
		{models.SeverityCritical, "🚨 Critical Issues (Fix Immediately)"},
		{models.SeverityWarning, "⚠️ Warnings (Recommended Fixes)"},
		{models.SeverityInfo, "💡 Suggestions"},
	}

	for _, sec := range sections {
		issues := rep.IssuesBySeverity(sec.severity)
		if len(issues) == 0 {
			continue
		}

		md.H2(sec.header)
		md.PlainText("")

		rows := make([][]string, len(issues))
		for i, is := range issues {
			rows[i] = []string{is.Title, is.Category, is.Description, is.Remediation}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Issue", "Category", "Details", "Fix"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func (r *Renderer) writeMetrics(md *markdown.Markdown, rep *models.Report) {
	m := rep.Metrics
	md.H2("📊 Site Metrics")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Words", strconv.Itoa(m.WordCount)},
			{"Load Time", strconv.FormatInt(m.LoadTimeMillis, 10) + "ms"},
			{"Title Length", strconv.Itoa(m.TitleLength)},
			{"Description Length", strconv.Itoa(m.DescriptionLength)},
			{"H1 Tags", strconv.Itoa(m.H1Count)},
			{"Images", strconv.Itoa(m.ImageCount)},
			{"Images Without Alt", strconv.Itoa(m.ImagesWithoutAlt)},
			{"HTTP Status", strconv.Itoa(m.HTTPStatus)},
		},
	})
	md.PlainText("")
}

func (r *Renderer) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	if r.opts.DashboardURL != "" {
		md.PlainTextf("*Generated by %s. [View Dashboard](%s)*", r.opts.ProductName, r.opts.DashboardURL)
		return
	}
	md.PlainTextf("*Generated by %s*", r.opts.ProductName)
}
