package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/rules"
)

type fakeRenderer struct {
	page  *models.RenderedPage
	err   error
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, url string) (*models.RenderedPage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	p.RequestedURL = url
	if p.FinalURL == "" {
		p.FinalURL = url
	}
	return &p, nil
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("lorem ", n))
}

func issueIDs(rep *models.Report) []string {
	out := []string{}
	for _, is := range rep.Issues {
		out = append(out, is.Rule)
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		critical, warning, info int
		want                    int
	}{
		{0, 0, 0, 100},
		{0, 0, 5, 100},
		{1, 0, 0, 75},
		{0, 1, 0, 90},
		{2, 0, 0, 50},
		{3, 1, 0, 15},
		{4, 0, 0, 0},
		{4, 3, 0, 0},
		{0, 10, 0, 0},
		{0, 11, 2, 0},
	}
	for _, tt := range tests {
		var issues []models.Issue
		for i := 0; i < tt.critical; i++ {
			issues = append(issues, models.Issue{Severity: models.SeverityCritical})
		}
		for i := 0; i < tt.warning; i++ {
			issues = append(issues, models.Issue{Severity: models.SeverityWarning})
		}
		for i := 0; i < tt.info; i++ {
			issues = append(issues, models.Issue{Severity: models.SeverityInfo})
		}
		if got := Score(issues); got != tt.want {
			t.Errorf("Score(c=%d w=%d i=%d) = %d, want %d", tt.critical, tt.warning, tt.info, got, tt.want)
		}
	}
}

func TestScore_Monotonic(t *testing.T) {
	for c := 0; c <= 5; c++ {
		for w := 0; w <= 12; w++ {
			base := Score(makeIssues(c, w))
			if base < 0 || base > 100 {
				t.Fatalf("Score(%d,%d) = %d out of range", c, w, base)
			}
			if Score(makeIssues(c+1, w)) > base {
				t.Errorf("adding a critical raised score at (%d,%d)", c, w)
			}
			if Score(makeIssues(c, w+1)) > base {
				t.Errorf("adding a warning raised score at (%d,%d)", c, w)
			}
		}
	}
}

func makeIssues(c, w int) []models.Issue {
	var out []models.Issue
	for i := 0; i < c; i++ {
		out = append(out, models.Issue{Severity: models.SeverityCritical})
	}
	for i := 0; i < w; i++ {
		out = append(out, models.Issue{Severity: models.SeverityWarning})
	}
	return out
}

func TestAnalyze_Examples(t *testing.T) {
	desc := strings.Repeat("d", 140)
	title45 := strings.Repeat("T", 45)

	tests := []struct {
		name      string
		html      string
		loadTime  time.Duration
		wantIDs   []string
		wantScore int
	}{
		{
			name:      "short title and no description",
			html:      `<html><head><title>Shop</title></head><body><h1>Shop</h1><p>` + words(499) + `</p></body></html>`,
			loadTime:  1200 * time.Millisecond,
			wantIDs:   []string{rules.TitleTooShort, rules.DescriptionMissing},
			wantScore: 50,
		},
		{
			name: "slow page",
			html: `<html><head><title>` + title45 + `</title><meta name="description" content="` + desc + `"></head>` +
				`<body><h1>x</h1><img src="a.png" alt="a"><p>` + words(899) + `</p></body></html>`,
			loadTime:  4500 * time.Millisecond,
			wantIDs:   []string{rules.SlowPageLoad},
			wantScore: 90,
		},
		{
			name: "bare page",
			html: `<html><head><meta name="description" content="` + desc + `"></head>` +
				`<body><img src="1.png"><img src="2.png"><img src="3.png"><p>` + words(150) + `</p></body></html>`,
			loadTime:  500 * time.Millisecond,
			wantIDs:   []string{rules.TitleMissing, rules.H1Missing, rules.ImagesMissingAlt, rules.InsufficientContent},
			wantScore: 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{page: &models.RenderedPage{HTML: tt.html, StatusCode: 200, LoadTime: tt.loadTime}}
			a := New(r, WithClock(func() time.Time { return fixedNow }))

			rep, err := a.Analyze(context.Background(), "https://example.com/")
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			got := issueIDs(rep)
			if strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("issues = %v, want %v", got, tt.wantIDs)
			}
			if rep.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", rep.Score, tt.wantScore)
			}
			if !rep.GeneratedAt.Equal(fixedNow) {
				t.Errorf("GeneratedAt = %v", rep.GeneratedAt)
			}
			if rep.URL != "https://example.com/" {
				t.Errorf("URL = %q", rep.URL)
			}
			if rep.Metrics.LoadTimeMillis != tt.loadTime.Milliseconds() {
				t.Errorf("load time = %d", rep.Metrics.LoadTimeMillis)
			}
		})
	}
}

func TestAnalyze_UnreachableYieldsNoReport(t *testing.T) {
	r := &fakeRenderer{err: models.SiteUnreachable(404, "page returned an error status", nil)}
	rep, err := New(r).Analyze(context.Background(), "https://example.com/missing")

	if rep != nil {
		t.Fatal("expected no report")
	}
	var ae *models.AuditError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeSiteUnreachable || ae.Status != 404 {
		t.Fatalf("err = %v, want SITE_UNREACHABLE 404", err)
	}
}

func TestAnalyze_InvalidURL(t *testing.T) {
	for _, in := range []string{"", "example.com", "ftp://example.com/file", "https://", "::::"} {
		r := &fakeRenderer{page: &models.RenderedPage{}}
		_, err := New(r).Analyze(context.Background(), in)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("%q: err = %v, want INVALID_INPUT", in, err)
		}
		if r.calls != 0 {
			t.Errorf("%q: renderer called for invalid input", in)
		}
	}
}

func TestAnalyze_ExtendedCatalogLeavesScore(t *testing.T) {
	html := `<html><head><title>` + strings.Repeat("T", 45) + `</title><meta name="description" content="` +
		strings.Repeat("d", 140) + `"></head><body><h1>x</h1><p>` + words(400) + `</p></body></html>`
	r := &fakeRenderer{page: &models.RenderedPage{HTML: html, StatusCode: 200}}

	rep, err := New(r, WithCatalog(rules.Extended())).Analyze(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Score != 100 {
		t.Errorf("score = %d, want 100", rep.Score)
	}
	if rep.Count(models.SeverityInfo) == 0 {
		t.Error("expected informational issues from the extended catalog")
	}
}

func TestAssemble_CopiesIssues(t *testing.T) {
	issues := []models.Issue{{Rule: "a", Severity: models.SeverityWarning}}
	s := &models.Signals{H1: []string{"a", "b"}}
	rep := Assemble("https://example.com", s, issues, 90, fixedNow)

	issues[0].Rule = "mutated"
	if rep.Issues[0].Rule != "a" {
		t.Error("report aliases the caller's issue slice")
	}
	if rep.Metrics.H1Count != 2 {
		t.Errorf("H1Count = %d", rep.Metrics.H1Count)
	}
}
