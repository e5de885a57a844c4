// Package metrics holds the Prometheus collectors for the funding gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "funding_gateway"

var (
	// SourceAttempts counts calls to each remote source by outcome.
	SourceAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_attempts_total",
			Help:      "Total number of source calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// FetchDuration measures how long each source call took.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of source calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// QualityDrops counts raw records rejected by the quality filter.
	QualityDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_drops_total",
			Help:      "Total number of records rejected by the quality filter",
		},
		[]string{"kind"},
	)

	// BranchServed counts which fallback branch produced each result.
	BranchServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_served_total",
			Help:      "Total number of aggregation runs by the branch that served them",
		},
		[]string{"branch"},
	)

	// CatalogSize is the number of opportunities in the committed snapshot.
	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_size",
			Help:      "Number of opportunities in the current catalog snapshot",
		},
	)

	// RefreshTotal counts catalog refreshes by status.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of catalog refreshes",
		},
		[]string{"status"},
	)
)

// RecordAttempt records one source call.
func RecordAttempt(endpoint, outcome string, seconds float64) {
	SourceAttempts.WithLabelValues(endpoint, outcome).Inc()
	FetchDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordQualityDrops adds n rejected records for a source kind.
func RecordQualityDrops(kind string, n int) {
	if n <= 0 {
		return
	}
	QualityDrops.WithLabelValues(kind).Add(float64(n))
}

// RecordBranch records the branch that served an aggregation run.
func RecordBranch(branch string) {
	BranchServed.WithLabelValues(branch).Inc()
}

// RecordRefresh records a catalog refresh and, on success, the new size.
func RecordRefresh(status string, size int) {
	RefreshTotal.WithLabelValues(status).Inc()
	if status == "success" {
		CatalogSize.Set(float64(size))
	}
}
