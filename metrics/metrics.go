// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counts finished audits by outcome ("ok" or an error code).
var AuditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "seoaudit_audits_total",
	Help: "Total number of audits by outcome",
}, []string{"outcome"})

// Measures render + extraction + evaluation time per audit.
var AuditDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "seoaudit_audit_duration_seconds",
	Help:    "Time taken to produce one report",
	Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to 32s
})

// Report-level metrics
var (
	IssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seoaudit_issues_total",
		Help: "Total number of issues reported, by severity",
	}, []string{"severity"})

	Scores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seoaudit_score",
		Help:    "Distribution of report scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
)

// Delivery metrics
var (
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seoaudit_deliveries_total",
		Help: "Total number of report deliveries by channel and outcome",
	}, []string{"channel", "outcome"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seoaudit_cache_lookups_total",
		Help: "Report cache lookups by result (hit or miss)",
	}, []string{"result"})
)

// Gauge of renders currently holding a browser context.
var ActiveRenders = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "seoaudit_active_renders",
	Help: "Number of page renders in progress",
})
