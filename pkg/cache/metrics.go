package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier (memory, sqlite)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_hits_total",
			Help: "Total number of recipe cache hits",
		},
		[]string{"tier"}, // "memory", "sqlite"
	)

	// CacheMisses tracks full cache misses (both tiers)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_cache_misses_total",
			Help: "Total number of recipe cache misses",
		},
	)

	// CacheErrors tracks persistent-tier operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "sweep", "clear", "stats"
	)

	// CacheSweptEntries tracks entries removed by expiry sweeps
	CacheSweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_cache_swept_entries_total",
			Help: "Total number of expired cache entries removed by sweeps",
		},
	)
)
