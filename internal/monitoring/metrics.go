package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the coordinator's Prometheus collectors. Each instance owns
// its registry so tests and multiple shells never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	Transitions      *prometheus.CounterVec
	TransitionTime   *prometheus.HistogramVec
	OptionalFailures *prometheus.CounterVec
	Windows          *prometheus.GaugeVec
	Commands         *prometheus.CounterVec
	BridgeClients    prometheus.Gauge
	ExitArmed        prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queuelip_transitions_total",
				Help: "Lifecycle transitions executed by the shell",
			},
			[]string{"operation", "status"},
		),
		TransitionTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "queuelip_transition_duration_seconds",
				Help:    "Time spent executing a transition plan",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		OptionalFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queuelip_optional_step_failures_total",
				Help: "Optional steps (focus, unminimize, notify, visibility query) that failed",
			},
			[]string{"step"},
		),
		Windows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "queuelip_windows",
				Help: "Live windows in the registry",
			},
			[]string{"role"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queuelip_commands_total",
				Help: "Commands received per transport",
			},
			[]string{"transport", "command"},
		),
		BridgeClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "queuelip_bridge_clients",
				Help: "Connected UI bridge websocket clients",
			},
		),
		ExitArmed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "queuelip_exit_armed",
				Help: "1 once the process has committed to exiting",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queuelip_bridge_http_requests_total",
				Help: "UI bridge HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "queuelip_bridge_http_request_duration_seconds",
				Help:    "UI bridge HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.Transitions,
		m.TransitionTime,
		m.OptionalFailures,
		m.Windows,
		m.Commands,
		m.BridgeClients,
		m.ExitArmed,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTransition counts one executed plan.
func (m *Metrics) RecordTransition(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Transitions.WithLabelValues(operation, status).Inc()
	m.TransitionTime.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordOptionalFailure counts a degraded optional step.
func (m *Metrics) RecordOptionalFailure(step string) {
	if m == nil {
		return
	}
	m.OptionalFailures.WithLabelValues(step).Inc()
}

// RecordCommand counts a command received over transport.
func (m *Metrics) RecordCommand(transport, command string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(transport, command).Inc()
}

// SetWindows replaces the live window gauge with counts per role.
func (m *Metrics) SetWindows(byRole map[string]int) {
	if m == nil {
		return
	}
	for _, role := range []string{"primary", "auxiliary", "transient"} {
		m.Windows.WithLabelValues(role).Set(float64(byRole[role]))
	}
}

// SetExitArmed flips the exit gauge.
func (m *Metrics) SetExitArmed() {
	if m == nil {
		return
	}
	m.ExitArmed.Set(1)
}

// SetBridgeClients reports the number of connected websocket clients.
func (m *Metrics) SetBridgeClients(n int) {
	if m == nil {
		return
	}
	m.BridgeClients.Set(float64(n))
}

// RecordHTTPRequest counts one bridge request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
