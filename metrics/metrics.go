// ABOUTME: Prometheus instrumentation for back-office calls and proposal submissions
// ABOUTME: Uses a private registry served over HTTP by promhttp
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "podium"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec
	APIRetries  *prometheus.CounterVec
	Submissions *prometheus.CounterVec
	Transitions *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Back-office API requests by operation and HTTP status code.",
		}, []string{"operation", "code"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Back-office API request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		APIRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Retried back-office API requests by operation.",
		}, []string{"operation"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposal_submissions_total",
			Help:      "Proposal submissions by requested status and outcome.",
		}, []string{"status", "outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_transitions_total",
			Help:      "Wizard actions dispatched by action name.",
		}, []string{"action"}),
	}

	m.registry.MustRegister(
		m.APIRequests,
		m.APILatency,
		m.APIRetries,
		m.Submissions,
		m.Transitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one API call. A code of 0 means no response was received.
func (m *Metrics) ObserveRequest(operation string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.APIRequests.WithLabelValues(operation, label).Inc()
	m.APILatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveRetry records a retried API call.
func (m *Metrics) ObserveRetry(operation string) {
	if m == nil {
		return
	}
	m.APIRetries.WithLabelValues(operation).Inc()
}

// ObserveSubmission records a proposal submission outcome.
func (m *Metrics) ObserveSubmission(status string, err error) {
	if m == nil {
		return
	}
	outcome := "created"
	if err != nil {
		outcome = "failed"
	}
	m.Submissions.WithLabelValues(status, outcome).Inc()
}

// ObserveTransition records a dispatched wizard action.
func (m *Metrics) ObserveTransition(action string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action).Inc()
}

// Serve exposes /metrics on addr until the server fails.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
