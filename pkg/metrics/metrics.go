package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charts_demo_upstream_requests_total",
			Help: "Outbound DEX Screener requests by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)

	upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "charts_demo_upstream_request_duration_seconds",
			Help:    "Latency of outbound DEX Screener requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	trendingAggregationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charts_demo_trending_aggregations_total",
			Help: "Trending aggregation runs by winning strategy (boosted, search, none).",
		},
		[]string{"strategy"},
	)

	choicesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charts_demo_choices_recorded_total",
			Help: "Recorded swipe choices by normalized label.",
		},
		[]string{"choice"},
	)
)

// MustRegisterMetrics registers all application collectors with the default
// prometheus registry. Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		upstreamRequestsTotal,
		upstreamRequestDuration,
		trendingAggregationsTotal,
		choicesRecordedTotal,
	)
}

// ObserveUpstreamRequest records the outcome and latency of one outbound call.
func ObserveUpstreamRequest(endpoint, result string, elapsed time.Duration) {
	upstreamRequestsTotal.WithLabelValues(endpoint, result).Inc()
	upstreamRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// CountTrendingAggregation records which strategy produced the candidate pool.
func CountTrendingAggregation(strategy string) {
	trendingAggregationsTotal.WithLabelValues(strategy).Inc()
}

// CountChoiceRecorded records one stored choice. The label is normalized to
// keep the metric cardinality bounded; anything outside green/red is "other".
func CountChoiceRecorded(choice string) {
	switch choice {
	case "green", "red":
	default:
		choice = "other"
	}
	choicesRecordedTotal.WithLabelValues(choice).Inc()
}
