package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(sceneAttemptsTotal, scenePollProgress, sceneGenLatencySec)
}

var (
	sceneAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_generation_attempts_total",
			Help: "Scene generation attempts by outcome.",
		},
		[]string{"outcome"}, // 'success', 'rate_limited', 'error', 'exhausted'
	)

	scenePollProgress = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scene_poll_progress_percent",
			Help:    "Vendor-reported progress observed on each status poll.",
			Buckets: []float64{0, 10, 25, 50, 75, 90, 99},
		},
	)

	sceneGenLatencySec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scene_generation_latency_seconds",
			Help:    "Wall time per scene slot from first attempt to final verdict.",
			Buckets: []float64{15, 30, 60, 120, 240, 480, 900},
		},
		[]string{"scene", "status"},
	)
)

func IncSceneAttempt(outcome string) {
	sceneAttemptsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveScenePoll(progress float64) {
	scenePollProgress.Observe(progress)
}

func ObserveSceneLatency(scene, status string, seconds float64) {
	sceneGenLatencySec.WithLabelValues(norm(scene), norm(status)).Observe(seconds)
}
