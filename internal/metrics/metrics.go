package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's operational counters and gauges.
//
// All increment methods are safe to call on a nil receiver, so callers
// can treat metrics as strictly optional wiring.
type Metrics struct {
	registry *prometheus.Registry

	messagesIngested prometheus.Counter
	badPayloads      prometheus.Counter
	storeFailures    prometheus.Counter
	broadcastsSent   prometheus.Counter
	connectedClients prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
//
// A dedicated registry (rather than the package default) keeps tests
// independent and avoids duplicate-registration panics on restart paths.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		messagesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telemetry",
			Name:      "messages_ingested_total",
			Help:      "Readings successfully persisted via the ingestion pipeline.",
		}),
		badPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telemetry",
			Name:      "bad_payloads_total",
			Help:      "Inbound payloads dropped as malformed or unattributable.",
		}),
		storeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telemetry",
			Name:      "store_failures_total",
			Help:      "Reading writes rejected by the record store.",
		}),
		broadcastsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telemetry",
			Name:      "broadcasts_total",
			Help:      "Readings handed to the realtime hub after a durable write.",
		}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "telemetry",
			Name:      "websocket_clients",
			Help:      "Currently connected WebSocket clients.",
		}),
	}

	registry.MustRegister(
		m.messagesIngested,
		m.badPayloads,
		m.storeFailures,
		m.broadcastsSent,
		m.connectedClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns an HTTP handler serving the registry in the
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncIngested records a successfully persisted reading.
func (m *Metrics) IncIngested() {
	if m == nil {
		return
	}
	m.messagesIngested.Inc()
}

// IncBadPayload records a dropped payload.
func (m *Metrics) IncBadPayload() {
	if m == nil {
		return
	}
	m.badPayloads.Inc()
}

// IncStoreFailure records a rejected store write.
func (m *Metrics) IncStoreFailure() {
	if m == nil {
		return
	}
	m.storeFailures.Inc()
}

// IncBroadcast records a reading handed to the hub.
func (m *Metrics) IncBroadcast() {
	if m == nil {
		return
	}
	m.broadcastsSent.Inc()
}

// ClientConnected increments the connected-clients gauge.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.connectedClients.Inc()
}

// ClientDisconnected decrements the connected-clients gauge.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.connectedClients.Dec()
}
