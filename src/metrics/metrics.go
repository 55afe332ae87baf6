package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts control plane operations by name and result code.
type Metrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	streams    prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tradecontrol",
				Subsystem: "control",
				Name:      "operations_total",
				Help:      "Control plane operations by result code",
			},
			[]string{"op", "result"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tradecontrol",
				Subsystem: "control",
				Name:      "operation_duration_seconds",
				Help:      "Control plane operation latency including store round trips",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"op"},
		),
		streams: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tradecontrol",
				Subsystem: "stream",
				Name:      "connections",
				Help:      "Open dashboard websocket connections",
			},
		),
	}
}

// Observe records one finished operation. result is "ok" or an error code.
func (m *Metrics) Observe(op, result string, elapsed time.Duration) {
	m.operations.WithLabelValues(op, result).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) StreamOpened() { m.streams.Inc() }
func (m *Metrics) StreamClosed() { m.streams.Dec() }

// Handler exposes g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
