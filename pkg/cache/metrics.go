package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts pages served from Redis.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logistics_cache_hits_total",
			Help: "Total number of page cache hits",
		},
	)

	// CacheMisses counts lookups that found no usable entry.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logistics_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// NotModifiedResponses counts 304 responses that revalidated an entry.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logistics_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// ConditionalRequestsSent counts requests sent with If-None-Match or If-Modified-Since.
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logistics_conditional_requests_total",
			Help: "Total number of conditional page requests",
		},
	)

	// CacheErrors counts Redis failures by operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logistics_cache_errors_total",
			Help: "Total number of page cache errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
