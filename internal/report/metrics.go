package report

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/psantana5/scopetimer/pkg/timer"
)

// Failure reasons
const (
	ReasonRange    = "range"
	ReasonWorkload = "workload"
	ReasonStart    = "start"
)

// Metrics exports individual measurements as Prometheus series.
// Counters only, plus the last value per label; no histograms.
type Metrics struct {
	registry     *prometheus.Registry
	measurements *prometheus.CounterVec
	failures     *prometheus.CounterVec
	lastElapsed  *prometheus.GaugeVec
}

var globalMetrics = NewMetrics()

// Global returns the process-wide metrics instance
func Global() *Metrics {
	return globalMetrics
}

// NewMetrics creates metrics backed by a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		measurements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopetimer_measurements_total",
				Help: "Measurements recorded, by format mode and unit",
			},
			[]string{"mode", "unit"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopetimer_measurement_failures_total",
				Help: "Measurements that could not be formatted or whose workload failed",
			},
			[]string{"reason"},
		),
		lastElapsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scopetimer_last_elapsed_seconds",
				Help: "Raw elapsed seconds of the most recent measurement per label",
			},
			[]string{"label"},
		),
	}

	m.registry.MustRegister(m.measurements, m.failures, m.lastElapsed)
	return m
}

// Observer returns a timer observer feeding these metrics under label
func (m *Metrics) Observer(label string) func(timer.Measurement) {
	return func(tm timer.Measurement) {
		m.RecordMeasurement(label, tm)
	}
}

// RecordMeasurement counts one formatted measurement
func (m *Metrics) RecordMeasurement(label string, tm timer.Measurement) {
	unit := tm.Unit
	if unit == "" {
		unit = "none"
	}
	m.measurements.WithLabelValues(tm.Mode.String(), unit).Inc()
	m.lastElapsed.WithLabelValues(label).Set(tm.Seconds)
}

// RecordFailure counts a failure by reason
func (m *Metrics) RecordFailure(reason string) {
	m.failures.WithLabelValues(reason).Inc()
}

// RecordResult counts the failure side of a finished run. Successful
// measurements are counted by the observer when they happen.
func (m *Metrics) RecordResult(r *Result) {
	switch {
	case r.Error != "" && !r.Measured():
		m.RecordFailure(ReasonRange)
	case r.ExitCode != 0:
		m.RecordFailure(ReasonWorkload)
	}
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
