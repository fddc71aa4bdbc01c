package extractor

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// readableWords counts the words of the main article content as located by
// the Readability algorithm. Pages where no article can be found yield 0.
func readableWords(rawHTML, sourceURL string) int {
	if strings.TrimSpace(rawHTML) == "" {
		return 0
	}
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return 0
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: extraction failed", "url", sourceURL, "error", err)
		return 0
	}
	return countWords(article.TextContent)
}
