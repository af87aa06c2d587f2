package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Tag index Prometheus metrics.
var (
	RebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagdex",
			Name:      "index_rebuilds_total",
			Help:      "Total number of tag index rebuilds",
		},
		[]string{"collection", "status"}, // "ok" / "error" / "skipped"
	)

	RebuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tagdex",
			Name:      "index_rebuild_duration_seconds",
			Help:      "Tag index rebuild duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collection"},
	)

	IndexEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tagdex",
			Name:      "index_entries",
			Help:      "Number of (tag, locale) records written by the last rebuild",
		},
		[]string{"collection"},
	)

	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagdex",
			Name:      "change_gate_decisions_total",
			Help:      "Document writes by whether they requested a reindex",
		},
		[]string{"collection", "decision"}, // "reindex" / "skip"
	)

	ReindexRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagdex",
			Name:      "reindex_requests_total",
			Help:      "Reindex requests by dispatch mode and outcome",
		},
		[]string{"mode", "status"},
	)
)

var tagIndexMetricsRegistered bool

// RegisterTagIndexMetrics registers Prometheus tag index metrics. Must be called once from main.
func RegisterTagIndexMetrics() {
	if tagIndexMetricsRegistered {
		return
	}
	prometheus.MustRegister(RebuildsTotal)
	prometheus.MustRegister(RebuildDuration)
	prometheus.MustRegister(IndexEntries)
	prometheus.MustRegister(GateDecisionsTotal)
	prometheus.MustRegister(ReindexRequestsTotal)
	tagIndexMetricsRegistered = true
}
