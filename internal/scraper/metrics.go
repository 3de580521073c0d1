package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bidwatch/bidwatch/internal/ingest"
)

var (
	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bidwatch_rows_total",
		Help: "Scraped rows by vendor and terminal outcome.",
	}, []string{"vendor", "outcome"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bidwatch_runs_total",
		Help: "Vendor runs by final status.",
	}, []string{"vendor", "status"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bidwatch_run_duration_seconds",
		Help:    "Wall time of one vendor run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"vendor"})
)

// RowProcessed tallies one row outcome.
func RowProcessed(vendor string, outcome ingest.Outcome) {
	rowsTotal.WithLabelValues(vendor, string(outcome)).Inc()
}

// RunFinished tallies one completed run.
func RunFinished(vendor, status string, seconds float64) {
	runsTotal.WithLabelValues(vendor, status).Inc()
	runDuration.WithLabelValues(vendor).Observe(seconds)
}
