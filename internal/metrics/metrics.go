// Package metrics exposes Prometheus counters for the linking and
// aggregation engine. A nil *Manager is valid everywhere and turns every
// method into a no-op, so tests and library callers don't need a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulselink"

// Manager owns the metric vectors and the registry they live in.
type Manager struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	registrations    *prometheus.CounterVec // by role
	legacyMigrations prometheus.Counter
	codesIssued      *prometheus.CounterVec // by namespace
	snapshotsCreated prometheus.Counter
	snapshotResolves *prometheus.CounterVec // by outcome
}

// New creates a Manager with a private registry (keeps the default global
// registry out of tests and avoids double-registration on restart paths).
func New() *Manager {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Manager{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Successful registrations by role.",
		}, []string{"role"}),
		legacyMigrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legacy_migrations_total",
			Help:      "Legacy profiles migrated to their canonical key.",
		}),
		codesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_issued_total",
			Help:      "Short codes issued by namespace.",
		}, []string{"namespace"}),
		snapshotsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_created_total",
			Help:      "Share snapshots created.",
		}),
		snapshotResolves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_resolves_total",
			Help:      "Snapshot resolutions by outcome (hit/miss).",
		}, []string{"outcome"}),
	}
}

// Handler serves the /metrics endpoint for this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) ObserveHTTP(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, status).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Manager) Registration(role string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(role).Inc()
}

func (m *Manager) LegacyMigration() {
	if m == nil {
		return
	}
	m.legacyMigrations.Inc()
}

func (m *Manager) CodeIssued(ns string) {
	if m == nil {
		return
	}
	m.codesIssued.WithLabelValues(ns).Inc()
}

func (m *Manager) SnapshotCreated() {
	if m == nil {
		return
	}
	m.snapshotsCreated.Inc()
}

func (m *Manager) SnapshotResolve(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.snapshotResolves.WithLabelValues(outcome).Inc()
}
