// Package metrics exposes Prometheus collectors for the cache, upstream
// requests and favorites mutations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipefinder"

// Result label values. Hit and miss are cache lookups; ok, error and
// rate_limited are upstream requests.
const (
	ResultHit         = "hit"
	ResultMiss        = "miss"
	ResultError       = "error"
	ResultOK          = "ok"
	ResultRateLimited = "rate_limited"
)

// Recorder owns a private registry so tests and multiple sessions in one
// process never collide on the global default registry.
type Recorder struct {
	registry         *prometheus.Registry
	cacheLookups     *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	favoriteOps      *prometheus.CounterVec
	favoritesCount   prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Fetch cache lookups by result",
			},
			[]string{"result"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Requests sent to TheMealDB by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_latency_seconds",
				Help:      "Latency of requests sent to TheMealDB",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		favoriteOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "favorite_operations_total",
				Help:      "Favorites mutations by operation",
			},
			[]string{"op"},
		),
		favoritesCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "favorites",
				Help:      "Number of recipes currently saved as favorites",
			},
		),
	}

	r.registry.MustRegister(
		r.cacheLookups,
		r.upstreamRequests,
		r.upstreamLatency,
		r.favoriteOps,
		r.favoritesCount,
	)
	return r
}

// CacheLookup counts one cache lookup. A nil Recorder is a no-op.
func (r *Recorder) CacheLookup(result string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// UpstreamRequest counts one upstream request and observes its latency.
func (r *Recorder) UpstreamRequest(endpoint, result string, seconds float64) {
	if r == nil {
		return
	}
	r.upstreamRequests.WithLabelValues(endpoint, result).Inc()
	r.upstreamLatency.WithLabelValues(endpoint).Observe(seconds)
}

// FavoriteOp counts one favorites mutation and records the resulting size.
func (r *Recorder) FavoriteOp(op string, size int) {
	if r == nil {
		return
	}
	r.favoriteOps.WithLabelValues(op).Inc()
	r.favoritesCount.Set(float64(size))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
