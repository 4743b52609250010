// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resonate_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resonate_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CatalogLookups counts external catalog lookups by kind and outcome (hit, miss, error, rejected).
	CatalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resonate_catalog_lookups_total",
		Help: "Total number of external catalog lookups",
	}, []string{"kind", "outcome"})

	// CatalogLatency records external catalog request latency.
	CatalogLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resonate_catalog_latency_seconds",
		Help:    "External catalog request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// CatalogBreakerState is 0 closed, 1 half-open, 2 open.
	CatalogBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resonate_catalog_breaker_state",
		Help: "Circuit breaker state of the catalog client",
	})

	// CacheRequests counts cache-aside reads by key family and result (hit, miss).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resonate_cache_requests_total",
		Help: "Cache-aside lookups by key family and result",
	}, []string{"family", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
