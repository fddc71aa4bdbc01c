package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

func sampleReport() *models.Report {
	return &models.Report{
		URL:         "https://example.com/",
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Score:       75,
		Issues: []models.Issue{{
			Rule:        "title-missing",
			Severity:    models.SeverityCritical,
			Category:    "Title",
			Title:       "Missing Title Tag",
			Remediation: "Add a title tag",
		}},
	}
}

func TestWriteReport(t *testing.T) {
	r := report.New(report.DefaultOptions())
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"score": 75`},
		{"html", "Missing Title Tag"},
		{"markdown", "Missing Title Tag"},
		{"text", "Missing Title Tag"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeReport(&buf, r, sampleReport(), tt.format); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q", tt.want)
			}
		})
	}

	var buf bytes.Buffer
	if err := writeReport(&buf, r, sampleReport(), "pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteReport_JSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, report.New(report.DefaultOptions()), sampleReport(), "json"); err != nil {
		t.Fatal(err)
	}
	var got models.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Score != 75 || len(got.Issues) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "seoaudit version") {
		t.Errorf("output = %q", out.String())
	}

	cmd = NewRootCmd()
	cmd.SetArgs([]string{"audit"})
	if err := cmd.Execute(); err == nil {
		t.Error("audit without url should fail")
	}
}
