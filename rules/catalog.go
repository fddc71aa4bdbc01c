package rules

import (
	"fmt"
	"math"

	"github.com/use-agent/seoaudit/models"
)

// Thresholds of the base catalog.
const (
	TitleMinLength       = 30
	TitleMaxLength       = 60
	DescriptionMinLength = 120
	DescriptionMaxLength = 160
	MinWordCount         = 300
	MaxLoadTimeMillis    = 3000
)

// Rule ids of the base catalog.
const (
	TitleMissing        = "title-missing"
	TitleTooShort       = "title-too-short"
	TitleTooLong        = "title-too-long"
	DescriptionMissing  = "description-missing"
	DescriptionTooShort = "description-too-short"
	DescriptionTooLong  = "description-too-long"
	H1Missing           = "h1-missing"
	H1Multiple          = "h1-multiple"
	ImagesMissingAlt    = "images-missing-alt"
	InsufficientContent = "insufficient-content"
	SlowPageLoad        = "slow-page-load"
)

var titleGroup = Group{
	Category: "Title",
	Rules: []Rule{
		{
			ID:          TitleMissing,
			Severity:    models.SeverityCritical,
			Impact:      models.ImpactHigh,
			Title:       "Missing Page Title",
			Remediation: "Add a descriptive <title> tag to your HTML head section",
			When:        func(s *models.Signals) bool { return s.TitleLength == 0 },
			Describe:    func(*models.Signals) string { return "Your page has no title tag" },
		},
		{
			ID:          TitleTooShort,
			Severity:    models.SeverityCritical,
			Impact:      models.ImpactHigh,
			Title:       "Title Too Short",
			Remediation: "Expand your title to 30-60 characters for better SEO",
			When:        func(s *models.Signals) bool { return s.TitleLength < TitleMinLength },
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("Your title is only %d characters", s.TitleLength)
			},
		},
		{
			ID:          TitleTooLong,
			Severity:    models.SeverityWarning,
			Impact:      models.ImpactMedium,
			Title:       "Title Too Long",
			Remediation: "Shorten your title to under 60 characters",
			When:        func(s *models.Signals) bool { return s.TitleLength > TitleMaxLength },
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("Your title is %d characters and may be truncated", s.TitleLength)
			},
		},
	},
}

var descriptionGroup = Group{
	Category: "Meta Description",
	Rules: []Rule{
		{
			ID:          DescriptionMissing,
			Severity:    models.SeverityCritical,
			Impact:      models.ImpactHigh,
			Title:       "Missing Meta Description",
			Remediation: `Add a <meta name="description" content="..."> tag`,
			When:        func(s *models.Signals) bool { return !s.HasDescription() },
			Describe:    func(*models.Signals) string { return "Your page has no meta description tag" },
		},
		{
			ID:          DescriptionTooShort,
			Severity:    models.SeverityWarning,
			Impact:      models.ImpactMedium,
			Title:       "Meta Description Too Short",
			Remediation: "Expand to 120-160 characters for better search snippets",
			When: func(s *models.Signals) bool {
				return s.HasDescription() && s.DescriptionLength < DescriptionMinLength
			},
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("Your meta description is only %d characters", s.DescriptionLength)
			},
		},
		{
			ID:          DescriptionTooLong,
			Severity:    models.SeverityWarning,
			Impact:      models.ImpactMedium,
			Title:       "Meta Description Too Long",
			Remediation: "Shorten to under 160 characters to avoid truncation",
			When: func(s *models.Signals) bool {
				return s.HasDescription() && s.DescriptionLength > DescriptionMaxLength
			},
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("Your meta description is %d characters", s.DescriptionLength)
			},
		},
	},
}

var headingGroup = Group{
	Category: "Headers",
	Rules: []Rule{
		{
			ID:          H1Missing,
			Severity:    models.SeverityCritical,
			Impact:      models.ImpactHigh,
			Title:       "Missing H1 Tag",
			Remediation: "Add an H1 tag with your main page topic",
			When:        func(s *models.Signals) bool { return len(s.H1) == 0 },
			Describe:    func(*models.Signals) string { return "Your page has no H1 heading tag" },
		},
		{
			ID:          H1Multiple,
			Severity:    models.SeverityWarning,
			Impact:      models.ImpactMedium,
			Title:       "Multiple H1 Tags",
			Remediation: "Use only one H1 tag per page, use H2-H6 for subheadings",
			When:        func(s *models.Signals) bool { return len(s.H1) > 1 },
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("Found %d H1 tags, should have only one", len(s.H1))
			},
		},
	},
}

var imageGroup = Group{
	Category: "Images",
	Rules: []Rule{
		{
			ID:          ImagesMissingAlt,
			Severity:    models.SeverityWarning,
			Impact:      models.ImpactMedium,
			Title:       "Images Missing Alt Text",
			Remediation: "Add descriptive alt attributes to all images for accessibility",
			When:        func(s *models.Signals) bool { return s.ImagesWithoutAlt() > 0 },
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("%d of %d images lack alt text", s.ImagesWithoutAlt(), len(s.Images))
			},
		},
	},
}

var contentGroup = Group{
	Category: "Content",
	Rules: []Rule{
		{
			ID:          InsufficientContent,
			Severity:    models.SeverityCritical,
			Impact:      models.ImpactHigh,
			Title:       "Insufficient Content",
			Remediation: "Add more valuable, relevant content to your page",
			When:        func(s *models.Signals) bool { return s.WordCount < MinWordCount },
			Describe: func(s *models.Signals) string {
				return fmt.Sprintf("Only %d words found, search engines prefer 300+", s.WordCount)
			},
		},
	},
}

var performanceGroup = Group{
	Category: "Performance",
	Rules: []Rule{
		{
			ID:          SlowPageLoad,
			Severity:    models.SeverityWarning,
			Impact:      models.ImpactHigh,
			Title:       "Slow Page Load",
			Remediation: "Optimize images, minimize CSS/JS, use a CDN",
			When:        func(s *models.Signals) bool { return s.LoadTimeMillis > MaxLoadTimeMillis },
			Describe: func(s *models.Signals) string {
				secs := math.Round(float64(s.LoadTimeMillis) / 1000)
				return fmt.Sprintf("Page loaded in %ds, target is under 3s", int64(secs))
			},
		},
	},
}

// Default returns the base catalog. The returned slice is fresh; the groups
// it holds are shared and must not be mutated.
func Default() Catalog {
	return Catalog{
		titleGroup,
		descriptionGroup,
		headingGroup,
		imageGroup,
		contentGroup,
		performanceGroup,
	}
}
