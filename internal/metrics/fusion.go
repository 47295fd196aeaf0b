package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fusion Prometheus metrics.
var (
	LaneIngestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lanefuse",
			Name:      "lane_ingests_total",
			Help:      "Total number of lane ingestions",
		},
		[]string{"lane", "status"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lanefuse",
			Name:      "runs_total",
			Help:      "Total number of runs created",
		},
		[]string{"kind", "status"},
	)

	FusionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lanefuse",
			Name:      "fusion_duration_seconds",
			Help:      "Fusion pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)
)

var fusionMetricsRegistered bool

// RegisterFusionMetrics registers Prometheus fusion metrics. Must be called once from main.
func RegisterFusionMetrics() {
	if fusionMetricsRegistered {
		return
	}
	prometheus.MustRegister(LaneIngestsTotal)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(FusionDuration)
	fusionMetricsRegistered = true
}
