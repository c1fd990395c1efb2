// Package metrics holds the Prometheus instruments of the signal pipeline.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeOK               = "ok"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeStale            = "stale"
	OutcomeError            = "error"
)

// Notification results.
const (
	NotificationSent      = "sent"
	NotificationDuplicate = "duplicate"
	NotificationFailed    = "failed"
)

// Metrics holds all Prometheus metrics for the signal pipeline.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal      *prometheus.CounterVec // labels: symbol, interval, outcome
	SignalsTotal       *prometheus.CounterVec // labels: symbol, side
	ComputeDuration    prometheus.Histogram
	NotificationsTotal *prometheus.CounterVec // labels: result
	StreamClients      prometheus.Gauge
}

// NewMetrics registers and returns all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_signals_analyses_total",
			Help: "Analyses attempted, by outcome",
		}, []string{"symbol", "interval", "outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_signals_signals_total",
			Help: "Buy and sell signals produced",
		}, []string{"symbol", "side"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "argo_signals_compute_seconds",
			Help:    "Indicator and signal computation latency",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_signals_notifications_total",
			Help: "Signal notifications, by result",
		}, []string{"result"}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "argo_signals_stream_clients",
			Help: "Connected live stream clients",
		}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.SignalsTotal,
		m.ComputeDuration,
		m.NotificationsTotal,
		m.StreamClients,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis counts one analysis attempt.
func (m *Metrics) ObserveAnalysis(symbol, interval, outcome string) {
	if m == nil {
		return
	}

	m.AnalysesTotal.WithLabelValues(symbol, interval, outcome).Inc()
}

// ObserveSignal counts a fired signal; side is a types.SignalType value.
func (m *Metrics) ObserveSignal(symbol, side string) {
	if m == nil {
		return
	}

	m.SignalsTotal.WithLabelValues(symbol, side).Inc()
}

// ObserveCompute records how long indicator and signal computation took.
func (m *Metrics) ObserveCompute(d time.Duration) {
	if m == nil {
		return
	}

	m.ComputeDuration.Observe(d.Seconds())
}

// ObserveNotification counts one relay decision.
func (m *Metrics) ObserveNotification(result string) {
	if m == nil {
		return
	}

	m.NotificationsTotal.WithLabelValues(result).Inc()
}

// StreamClientConnected adjusts the live stream client gauge by delta.
func (m *Metrics) StreamClientConnected(delta int) {
	if m == nil {
		return
	}

	m.StreamClients.Add(float64(delta))
}
