// Package metrics exposes server counters in Prometheus format. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnsupportedEvent labels every inbound event the server does not handle, so
// client-chosen names never become label values.
const UnsupportedEvent = "unsupported"

type Metrics struct {
	registry    *prometheus.Registry
	connections prometheus.Gauge
	events      *prometheus.CounterVec
	persisted   prometheus.Counter
	transitions *prometheus.CounterVec
	timersLive  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "frella_connections_active",
			Help: "Open websocket connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frella_events_total",
			Help: "Inbound events dispatched, by event name. Unknown names count as unsupported.",
		}, []string{"event"}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frella_messages_persisted_total",
			Help: "Chat messages written to storage.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frella_game_transitions_total",
			Help: "Game phase transitions, by phase entered.",
		}, []string{"phase"}),
		timersLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "frella_game_timers_live",
			Help: "Game timers currently armed across all rooms.",
		}),
	}
	m.registry.MustRegister(
		m.connections,
		m.events,
		m.persisted,
		m.transitions,
		m.timersLive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

// Event counts one inbound event. Callers pass a known event name or
// UnsupportedEvent.
func (m *Metrics) Event(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}

func (m *Metrics) MessagePersisted() {
	if m == nil {
		return
	}
	m.persisted.Inc()
}

func (m *Metrics) GameTransition(phase string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(phase).Inc()
}

func (m *Metrics) TimerStarted() {
	if m == nil {
		return
	}
	m.timersLive.Inc()
}

func (m *Metrics) TimerStopped() {
	if m == nil {
		return
	}
	m.timersLive.Dec()
}
