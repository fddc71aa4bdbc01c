package models

// Severity classifies how urgently an issue should be fixed.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Impact estimates how much an issue hurts search visibility.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Issue is one rule violation found on a page.
type Issue struct {
	// Rule is the stable identifier of the rule that produced the issue,
	// e.g. "title-too-short".
	Rule        string   `json:"rule"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remediation string   `json:"remediation"`
	Impact      Impact   `json:"impact"`
}
