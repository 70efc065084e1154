// Package metrics exposes Prometheus counters and histograms for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gymtrack"

// Manager owns a registry and the application's collectors. A nil *Manager
// is valid and records nothing.
type Manager struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	loginAttempts       *prometheus.CounterVec
	sessionsLogged      *prometheus.CounterVec
	planDeletions       *prometheus.CounterVec
	rateLimited         prometheus.Counter
}

// NewManager creates a Manager with a private registry that also carries the
// Go runtime and process collectors.
func NewManager() *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(reg)

	return &Manager{
		registry: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		loginAttempts: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Token requests by outcome.",
		}, []string{"outcome"}),
		sessionsLogged: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workouts",
			Name:      "sessions_logged_total",
			Help:      "Finished sessions by status.",
		}, []string{"status"}),
		planDeletions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plans",
			Name:      "deletions_total",
			Help:      "Plan deletions by outcome (archived or deleted).",
		}, []string{"outcome"}),
		rateLimited: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Manager) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// LoginAttempt records a token request; outcome is "success" or "failure".
func (m *Manager) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// SessionLogged records a finished session.
func (m *Manager) SessionLogged(status string) {
	if m == nil {
		return
	}
	m.sessionsLogged.WithLabelValues(status).Inc()
}

// PlanDeleted records the outcome of a plan deletion.
func (m *Manager) PlanDeleted(outcome string) {
	if m == nil {
		return
	}
	m.planDeletions.WithLabelValues(outcome).Inc()
}

// RateLimited records a throttled request.
func (m *Manager) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
