package models

import "time"

// Metrics is the numeric subset of Signals carried by a Report.
type Metrics struct {
	TitleLength       int   `json:"title_length"`
	DescriptionLength int   `json:"description_length"`
	H1Count           int   `json:"h1_count"`
	ImageCount        int   `json:"image_count"`
	ImagesWithoutAlt  int   `json:"images_without_alt"`
	WordCount         int   `json:"word_count"`
	LoadTimeMillis    int64 `json:"load_time_ms"`
	HTTPStatus        int   `json:"http_status"`
}

// MetricsFrom projects the numeric signals into Metrics.
func MetricsFrom(s *Signals) Metrics {
	return Metrics{
		TitleLength:       s.TitleLength,
		DescriptionLength: s.DescriptionLength,
		H1Count:           len(s.H1),
		ImageCount:        len(s.Images),
		ImagesWithoutAlt:  s.ImagesWithoutAlt(),
		WordCount:         s.WordCount,
		LoadTimeMillis:    s.LoadTimeMillis,
		HTTPStatus:        s.HTTPStatus,
	}
}

// Report is the output of one audit run. It is never partially populated and
// must be treated as read-only once returned.
type Report struct {
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generated_at"`
	Score       int       `json:"score"`
	Issues      []Issue   `json:"issues"`
	Metrics     Metrics   `json:"metrics"`
}

// IssuesBySeverity returns the issues of the given severity in report order.
func (r *Report) IssuesBySeverity(sev Severity) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}

// Count returns the number of issues with the given severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}
