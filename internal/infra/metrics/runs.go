package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(runsProcessedTotal, stageLatencySec) }

var (
	runsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_runs_processed_total",
			Help: "Total number of pipeline runs processed, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	stageLatencySec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_latency_seconds",
			Help:    "Latency per pipeline stage.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"stage", "success"},
	)
)

func IncRun(status string) {
	runsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStage(stage string, seconds float64, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	stageLatencySec.WithLabelValues(norm(stage), s).Observe(seconds)
}
