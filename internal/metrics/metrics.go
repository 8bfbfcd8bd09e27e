// Package metrics exports summarization counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "papersum"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	summaries       *prometheus.CounterVec
	primaryFailures *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	jobsInFlight    prometheus.Gauge
	extractions     *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Summaries returned, by the path that produced them.",
		}, []string{"source"}),
		primaryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "primary_failures_total",
			Help:      "Failed calls to the completion endpoint, by failure kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_seconds",
			Help:      "End-to-end summarization latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"source"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_in_flight",
			Help:      "Summarization jobs currently running.",
		}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "File extractions, by media type and result.",
		}, []string{"type", "result"}),
	}

	registry.MustRegister(
		m.summaries,
		m.primaryFailures,
		m.latency,
		m.jobsInFlight,
		m.extractions,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns nil for a nil Metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSummary(source string, d time.Duration) {
	if m == nil {
		return
	}

	m.summaries.WithLabelValues(source).Inc()
	m.latency.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) PrimaryFailed(kind string) {
	if m == nil {
		return
	}

	m.primaryFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}

	m.jobsInFlight.Inc()
}

func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}

	m.jobsInFlight.Dec()
}

func (m *Metrics) ObserveExtraction(mediaType string, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	m.extractions.WithLabelValues(mediaType, result).Inc()
}
