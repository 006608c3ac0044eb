package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/recofeed-go/internal/storage/snapshot"
)

const namespace = "recofeed"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Loader metrics
	LoaderResponses *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec

	// Snapshot metrics
	SnapshotRestores *prometheus.CounterVec
	SnapshotCaptures *prometheus.CounterVec
	SnapshotItems    *prometheus.GaugeVec

	// Remote metrics
	RemoteRequests *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	BreakerState   *prometheus.GaugeVec
}

// NewRegistry creates a registry with every recofeed metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		LoaderResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "responses_total",
			Help:      "Fetch responses by feed and outcome (accepted, stale, failed).",
		}, []string{"feed", "outcome"}),

		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "fetch_duration_seconds",
			Help:      "Time from issuing a fetch to its response.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"feed"}),

		SnapshotRestores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "restores_total",
			Help:      "Snapshot restore attempts by key and outcome.",
		}, []string{"key", "outcome"}),

		SnapshotCaptures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "captures_total",
			Help:      "Snapshot writes by key and result.",
		}, []string{"key", "result"}),

		SnapshotItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "items",
			Help:      "Items in the last successful capture.",
		}, []string{"key"}),

		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Recommender API calls by endpoint and status.",
		}, []string{"endpoint", "status"}),

		RemoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Recommender API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"breaker"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.LoaderResponses,
		r.FetchDuration,
		r.SnapshotRestores,
		r.SnapshotCaptures,
		r.SnapshotItems,
		r.RemoteRequests,
		r.RemoteDuration,
		r.BreakerState,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Registerer exposes the underlying registry for components that register
// their own collectors (e.g. the Badger engine).
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// ObserveFetch implements loader.Observer.
func (r *Registry) ObserveFetch(feed, outcome string, elapsed time.Duration) {
	r.LoaderResponses.WithLabelValues(feed, outcome).Inc()
	r.FetchDuration.WithLabelValues(feed).Observe(elapsed.Seconds())
}

// ObserveRestore implements snapshot.Metrics.
func (r *Registry) ObserveRestore(key string, outcome snapshot.RestoreOutcome) {
	r.SnapshotRestores.WithLabelValues(key, string(outcome)).Inc()
}

// ObserveCapture implements snapshot.Metrics.
func (r *Registry) ObserveCapture(key string, items int, err error) {
	if err != nil {
		r.SnapshotCaptures.WithLabelValues(key, "error").Inc()
		return
	}
	r.SnapshotCaptures.WithLabelValues(key, "ok").Inc()
	r.SnapshotItems.WithLabelValues(key).Set(float64(items))
}

// ObserveRequest implements remote.Metrics.
func (r *Registry) ObserveRequest(endpoint, status string, elapsed time.Duration) {
	r.RemoteRequests.WithLabelValues(endpoint, status).Inc()
	r.RemoteDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SetBreakerState implements remote.Metrics.
func (r *Registry) SetBreakerState(name string, state int) {
	r.BreakerState.WithLabelValues(name).Set(float64(state))
}
