// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics provides Prometheus metrics for reconciliation runs, source
// extraction and DURO API traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ComparisonsTotal counts reconciliation runs.
	ComparisonsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bom_reconcile_comparisons_total",
			Help: "Total number of BOM comparisons run",
		},
	)

	ComparisonDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bom_reconcile_comparison_duration_seconds",
			Help:    "Time taken to reconcile two BOMs",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// RecordsTotal counts comparison records by kind (matched,
	// primary_only, secondary_only).
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_reconcile_records_total",
			Help: "Total number of comparison records produced, by kind",
		},
		[]string{"kind"},
	)

	// IssuesTotal counts field issues on matched records by issue kind.
	IssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_reconcile_issues_total",
			Help: "Total number of field issues found on matched records",
		},
		[]string{"issue"},
	)

	// ExtractionErrorsTotal counts failed source extractions by source and
	// error type (column, empty, read).
	ExtractionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_reconcile_extraction_errors_total",
			Help: "Total number of BOM source extraction failures",
		},
		[]string{"source", "type"},
	)

	DuroRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_reconcile_duro_requests_total",
			Help: "Total number of DURO API requests",
		},
		[]string{"operation", "status"},
	)

	DuroRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bom_reconcile_duro_request_duration_seconds",
			Help:    "Duration of DURO API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// ExportsTotal counts written exports by format.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bom_reconcile_exports_total",
			Help: "Total number of exports written, by format",
		},
		[]string{"format"},
	)
)

// RecordComparison records one reconciliation run.
func RecordComparison(duration time.Duration, matched, primaryOnly, secondaryOnly int) {
	ComparisonsTotal.Inc()
	ComparisonDuration.Observe(duration.Seconds())
	RecordsTotal.WithLabelValues("matched").Add(float64(matched))
	RecordsTotal.WithLabelValues("primary_only").Add(float64(primaryOnly))
	RecordsTotal.WithLabelValues("secondary_only").Add(float64(secondaryOnly))
}

// RecordIssues adds n field issues of the given kind.
func RecordIssues(issue string, n int) {
	if n > 0 {
		IssuesTotal.WithLabelValues(issue).Add(float64(n))
	}
}

// RecordExtractionError records a failed source extraction.
func RecordExtractionError(source, errType string) {
	ExtractionErrorsTotal.WithLabelValues(source, errType).Inc()
}

// RecordDuroRequest records one DURO API call.
func RecordDuroRequest(operation, status string, duration time.Duration) {
	DuroRequestsTotal.WithLabelValues(operation, status).Inc()
	DuroRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordExport records one written export.
func RecordExport(format string) {
	ExportsTotal.WithLabelValues(format).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Timer is a helper for measuring duration.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
