package rules

import (
	"fmt"

	"github.com/use-agent/seoaudit/models"
)

// Rule ids of the extended catalog. All of them are informational.
const (
	CanonicalMissing = "canonical-missing"
	ViewportMissing  = "viewport-missing"
	LangMissing      = "lang-missing"
	BoilerplateHeavy = "boilerplate-heavy"
)

var extendedGroups = []Group{
	{
		Category: "Indexing",
		Rules: []Rule{{
			ID:          CanonicalMissing,
			Severity:    models.SeverityInfo,
			Impact:      models.ImpactLow,
			Title:       "Missing Canonical URL",
			Remediation: `Add a <link rel="canonical" href="..."> tag pointing at the preferred URL`,
			When:        func(s *models.Signals) bool { return s.Canonical == "" },
			Describe:    func(*models.Signals) string { return "Your page declares no canonical URL" },
		}},
	},
	{
		Category: "Mobile",
		Rules: []Rule{{
			ID:          ViewportMissing,
			Severity:    models.SeverityInfo,
			Impact:      models.ImpactMedium,
			Title:       "Missing Viewport Meta Tag",
			Remediation: `Add <meta name="viewport" content="width=device-width, initial-scale=1">`,
			When:        func(s *models.Signals) bool { return !s.HasViewport },
			Describe:    func(*models.Signals) string { return "Your page has no viewport meta tag" },
		}},
	},
	{
		Category: "Language",
		Rules: []Rule{{
			ID:          LangMissing,
			Severity:    models.SeverityInfo,
			Impact:      models.ImpactLow,
			Title:       "Missing Language Attribute",
			Remediation: `Declare the page language, e.g. <html lang="en">`,
			When:        func(s *models.Signals) bool { return s.Lang == "" },
			Describe:    func(*models.Signals) string { return "The html element has no lang attribute" },
		}},
	},
	{
		Category: "Content",
		Rules: []Rule{{
			ID:          BoilerplateHeavy,
			Severity:    models.SeverityInfo,
			Impact:      models.ImpactLow,
			Title:       "Thin Main Content",
			Remediation: "Move navigation and repeated blocks out of the way of the main content",
			When: func(s *models.Signals) bool {
				return s.WordCount >= MinWordCount && s.ReadableWordCount*2 < s.WordCount
			},
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("Only %d of %d words belong to the main content", s.ReadableWordCount, s.WordCount)
			},
		}},
	},
}

// Extended returns the base catalog followed by the informational groups.
// Info issues never change the score.
func Extended() Catalog {
	return Default().With(extendedGroups...)
}
