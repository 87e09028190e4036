package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_transitions_total",
			Help: "Status transitions applied or rejected",
		},
		[]string{"to_status", "outcome"},
	)

	bulkItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_bulk_items_total",
			Help: "Per-item outcomes of bulk operations",
		},
		[]string{"operation", "outcome"},
	)

	bulkCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_bulk_calls_total",
			Help: "Bulk calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	analyticsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_total",
			Help: "Analytics snapshot cache lookups",
		},
		[]string{"outcome"},
	)

	analyticsComputeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_compute_seconds",
			Help:    "Time spent recomputing analytics snapshots",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
)

func TrackTransition(toStatus, outcome string) {
	transitionsTotal.WithLabelValues(toStatus, outcome).Inc()
}

func TrackBulkItem(operation, outcome string) {
	bulkItemsTotal.WithLabelValues(operation, outcome).Inc()
}

func TrackBulkCall(operation, outcome string) {
	bulkCallsTotal.WithLabelValues(operation, outcome).Inc()
}

func TrackCacheLookup(outcome string) {
	analyticsCacheTotal.WithLabelValues(outcome).Inc()
}

func TrackAnalyticsCompute(seconds float64) {
	analyticsComputeSeconds.Observe(seconds)
}
