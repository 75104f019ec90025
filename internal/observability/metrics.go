package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "access_gate"

// Metrics holds the application collectors. Every method is safe on a nil
// receiver so components can run with metrics disabled.
type Metrics struct {
	registry *prometheus.Registry

	gateDecisions   *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	roleAssignments *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Route gate decisions by path class and outcome",
		}, []string{"class", "outcome"}),
		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by audience, event type and outcome",
		}, []string{"audience", "event_type", "outcome"}),
		roleAssignments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_assignments_total",
			Help:      "Role assignment requests by outcome",
		}, []string{"outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveGate counts one route gate decision
func (m *Metrics) ObserveGate(class, outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(class, outcome).Inc()
}

// ObserveWebhook counts one webhook delivery
func (m *Metrics) ObserveWebhook(audience, eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(audience, eventType, outcome).Inc()
}

// ObserveAssignment counts one role assignment request
func (m *Metrics) ObserveAssignment(outcome string) {
	if m == nil {
		return
	}
	m.roleAssignments.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records a served request. route should be the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
