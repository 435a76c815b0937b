package infra

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry so several
// instances can coexist in one process (tests, multiple binaries).
type Metrics struct {
	registry        *prometheus.Registry
	Operations      *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	UnitsSold       prometheus.Counter
	OutboxPublished *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketfund",
		Subsystem: "core",
		Name:      "operations_total",
		Help:      "Coordinator operations by outcome.",
	}, []string{"operation", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketfund",
		Subsystem: "core",
		Name:      "operation_duration_ms",
		Help:      "Coordinator operation latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"operation"})
	units := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketfund",
		Subsystem: "core",
		Name:      "units_sold_total",
		Help:      "Product units committed by checkouts.",
	})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketfund",
		Subsystem: "outbox",
		Name:      "published_total",
		Help:      "Outbox events handed to the broker.",
	}, []string{"event_type", "status"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketfund",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "status"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(operations, latency, units, published, requests)
	return &Metrics{
		registry:        reg,
		Operations:      operations,
		LatencyMS:       latency,
		UnitsSold:       units,
		OutboxPublished: published,
		HTTPRequests:    requests,
	}
}

// ObserveOperation records one coordinator call. A nil receiver is a no-op.
func (m *Metrics) ObserveOperation(op, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.LatencyMS.WithLabelValues(op).Observe(float64(time.Since(started).Microseconds()) / 1000)
}

func (m *Metrics) AddUnitsSold(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UnitsSold.Add(float64(n))
}

func (m *Metrics) ObservePublish(eventType string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.OutboxPublished.WithLabelValues(eventType, status).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer is used by tests to inspect collected values.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
