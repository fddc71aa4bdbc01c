package audit

import "github.com/use-agent/seoaudit/models"

// Score weights.
const (
	MaxScore        = 100
	CriticalPenalty = 25
	WarningPenalty  = 10
)

// Score computes the page health score from issue severities:
// 100 minus 25 per critical and 10 per warning, floored at 0. Info issues do
// not count.
func Score(issues []models.Issue) int {
	score := MaxScore
	for _, is := range issues {
		switch is.Severity {
		case models.SeverityCritical:
			score -= CriticalPenalty
		case models.SeverityWarning:
			score -= WarningPenalty
		}
	}
	return max(0, score)
}
