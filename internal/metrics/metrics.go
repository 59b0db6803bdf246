// Package metrics provides Prometheus metrics for a shuttle build run.
//
// Grounded on p-agent-test-kog-demo's internal/metrics/metrics.go: a
// private prometheus.Registry holding hand-registered collectors exposed
// through a promhttp handler, rather than the global default registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector shuttle reports.
type Metrics struct {
	WaveDuration    *prometheus.HistogramVec
	BuildsTotal     *prometheus.CounterVec
	ActiveDevTasks  prometheus.Gauge
	WatchRebuilds   prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers every collector against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		WaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shuttle_wave_duration_seconds",
				Help:    "Duration of a single build wave.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"wave"},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shuttle_builds_total",
				Help: "Total project builds by outcome.",
			},
			[]string{"project", "outcome"},
		),
		ActiveDevTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shuttle_active_dev_tasks",
				Help: "Number of supervised dev tasks currently running.",
			},
		),
		WatchRebuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shuttle_watch_rebuilds_total",
				Help: "Total rebuilds triggered by the file watcher.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.WaveDuration)
	reg.MustRegister(m.BuildsTotal)
	reg.MustRegister(m.ActiveDevTasks)
	reg.MustRegister(m.WatchRebuilds)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordWave observes a wave's duration in seconds, labeled by its index.
func (m *Metrics) RecordWave(wave int, seconds float64) {
	m.WaveDuration.WithLabelValues(strconv.Itoa(wave)).Observe(seconds)
}

// RecordBuild increments the build counter for a project's outcome
// ("success" or "failure").
func (m *Metrics) RecordBuild(project, outcome string) {
	m.BuildsTotal.WithLabelValues(project, outcome).Inc()
}

// SetActiveDevTasks sets the current count of supervised dev tasks.
func (m *Metrics) SetActiveDevTasks(count int) {
	m.ActiveDevTasks.Set(float64(count))
}

// RecordWatchRebuild increments the watch-triggered rebuild counter.
func (m *Metrics) RecordWatchRebuild() {
	m.WatchRebuilds.Inc()
}
