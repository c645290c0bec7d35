// Package metrics owns the prometheus collectors for the social service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	mirrorOutcomes  *prometheus.CounterVec
	mirrorAttempts  *prometheus.CounterVec
	reactionToggles *prometheus.CounterVec
	requests        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mirrorOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "social",
			Subsystem: "mirror",
			Name:      "outcomes_total",
			Help:      "Mirror submissions by entity kind and final status.",
		}, []string{"kind", "status"}),
		mirrorAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "social",
			Subsystem: "mirror",
			Name:      "attempts_total",
			Help:      "Individual ledger submission attempts by result.",
		}, []string{"result"}),
		reactionToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "social",
			Name:      "reaction_toggles_total",
			Help:      "Reaction toggles by target type and resulting state.",
		}, []string{"target", "state"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "social",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code class.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.mirrorOutcomes,
		m.mirrorAttempts,
		m.reactionToggles,
		m.requests,
	)
	return m
}

func (m *Metrics) MirrorOutcome(kind, status string) {
	if m == nil {
		return
	}
	m.mirrorOutcomes.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) MirrorAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.mirrorAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) ReactionToggled(target string, liked bool) {
	if m == nil {
		return
	}
	state := "off"
	if liked {
		state = "on"
	}
	m.reactionToggles.WithLabelValues(target, state).Inc()
}

func (m *Metrics) Request(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, codeClass(status)).Inc()
}

func codeClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
