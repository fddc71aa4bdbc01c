package report

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/use-agent/seoaudit/models"
)

// newMarkdownConverter creates a reusable, goroutine-safe Converter:
//
//   - base plugin: drops head, style and comments.
//   - commonmark plugin: headings, emphasis, links.
//   - table plugin: kept for report tables, minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Text renders rep as plain text for the text/plain part of an email. It is
// the HTML rendering converted to Markdown, so both parts always agree.
func (r *Renderer) Text(rep *models.Report) (string, error) {
	return r.md.ConvertString(r.HTML(rep))
}
