// Package rules holds the SEO rule catalog and evaluates it against the
// signals of one page.
package rules

import (
	"github.com/use-agent/seoaudit/models"
)

// Rule is one static check. When must be a pure predicate over the signals;
// Describe renders the issue description for a page that matched.
type Rule struct {
	ID          string
	Severity    models.Severity
	Impact      models.Impact
	Title       string
	Remediation string
	When        func(s *models.Signals) bool
	Describe    func(s *models.Signals) string
}

// Group is an ordered list of rules sharing a category. At most one rule of
// a group fires: the first whose predicate holds.
type Group struct {
	Category string
	Rules    []Rule
}

// Catalog is an ordered list of independent groups.
type Catalog []Group

// Evaluate runs every group against s and returns the fired issues in catalog
// order. It never returns nil.
func (c Catalog) Evaluate(s *models.Signals) []models.Issue {
	issues := make([]models.Issue, 0, len(c))
	for _, g := range c {
		for _, r := range g.Rules {
			if !r.When(s) {
				continue
			}
			issues = append(issues, models.Issue{
				Rule:        r.ID,
				Severity:    r.Severity,
				Category:    g.Category,
				Title:       r.Title,
				Description: r.Describe(s),
				Remediation: r.Remediation,
				Impact:      r.Impact,
			})
			break
		}
	}
	return issues
}

// With returns a new catalog holding c followed by more.
func (c Catalog) With(more ...Group) Catalog {
	out := make(Catalog, 0, len(c)+len(more))
	out = append(out, c...)
	return append(out, more...)
}

// RuleIDs lists every rule id in catalog order.
func (c Catalog) RuleIDs() []string {
	var ids []string
	for _, g := range c {
		for _, r := range g.Rules {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Lookup finds a rule by id.
func (c Catalog) Lookup(id string) (Rule, bool) {
	for _, g := range c {
		for _, r := range g.Rules {
			if r.ID == id {
				return r, true
			}
		}
	}
	return Rule{}, false
}
