// Package metrics exposes Prometheus collectors for the scoring pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	registry     = prometheus.NewRegistry()
	registryOnce sync.Once
	metricsPath  = "/metrics"

	// Frame metrics
	FramesAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crease_frames_analyzed_total",
			Help: "Total number of frames scored",
		},
		[]string{"skill", "mode"},
	)

	FrameScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crease_frame_overall_score",
			Help:    "Distribution of per-frame overall scores",
			Buckets: prometheus.LinearBuckets(30, 10, 8), // 30 to 100
		},
		[]string{"skill"},
	)

	FrameErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crease_frame_errors_total",
			Help: "Total number of frames that could not be scored",
		},
		[]string{"mode", "reason"},
	)

	// Live loop metrics
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crease_live_tick_duration_seconds",
			Help:    "Time taken by one live tick including pose detection",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~0.5s
		},
	)

	TicksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crease_live_ticks_skipped_total",
			Help: "Ticks where no fresh pose was available",
		},
	)

	LiveSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crease_live_sessions_active",
			Help: "Number of running live sessions",
		},
	)

	Captures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crease_captures_total",
			Help: "Capture windows by outcome",
		},
		[]string{"outcome"},
	)

	// Batch metrics
	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crease_batch_duration_seconds",
			Help:    "Duration of batch analyses",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"source"},
	)

	// History metrics
	AnalysesSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crease_analyses_saved_total",
			Help: "Summaries written to the history store",
		},
		[]string{"skill", "status"},
	)
)

// Init registers all collectors. It is safe to call more than once.
func Init() {
	registryOnce.Do(func() {
		registry.MustRegister(
			FramesAnalyzed,
			FrameScore,
			FrameErrors,

			TickDuration,
			TicksSkipped,
			LiveSessionsActive,
			Captures,

			BatchDuration,
			AnalysesSaved,

			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		log.Debug("Prometheus metrics initialized")
	})
}

// Registry returns the registry the collectors are registered with.
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          registry,
	})
}

// RegisterHandler mounts Handler on mux at the metrics path.
func RegisterHandler(mux *http.ServeMux) {
	mux.Handle(metricsPath, Handler())
}

// RecordFrame counts one scored frame.
func RecordFrame(skill, mode string, overall int) {
	FramesAnalyzed.WithLabelValues(skill, mode).Inc()
	FrameScore.WithLabelValues(skill).Observe(float64(overall))
}

// RecordFrameError counts a frame that was dropped.
func RecordFrameError(mode, reason string) {
	FrameErrors.WithLabelValues(mode, reason).Inc()
}

// ObserveTick returns a func that records the tick duration when called.
func ObserveTick() func() {
	start := time.Now()
	return func() {
		TickDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordCapture counts a capture window by outcome (completed, cancelled).
func RecordCapture(outcome string) {
	Captures.WithLabelValues(outcome).Inc()
}

// ObserveBatch returns a func that records the batch duration when called.
func ObserveBatch(source string) func() {
	start := time.Now()
	return func() {
		BatchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
}

// RecordSave counts a history write.
func RecordSave(skill string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	AnalysesSaved.WithLabelValues(skill, status).Inc()
}
