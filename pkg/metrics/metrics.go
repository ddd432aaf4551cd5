// Package metrics provides the centralized Prometheus metrics registry for
// the recipe service. All metrics are defined in their respective packages
// (provider, cache, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the recipe service.
// All metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Governor Metrics (pkg/ratelimit):
//   - recipe_provider_throttles_total (Counter): Requests self-throttled at the window ceiling
//   - recipe_provider_outbound_calls_total (Counter): Real outbound provider calls recorded
//
// Cache Metrics (pkg/cache):
//   - recipe_cache_hits_total{tier="memory"|"store"} (Counter): Cache hits by tier
//   - recipe_cache_misses_total (Counter): Cache misses across both tiers
//   - recipe_cache_errors_total{operation} (Counter): Persistent-tier operation errors
//   - recipe_cache_swept_entries_total (Counter): Expired rows removed by the sweeper
//
// Provider Metrics (pkg/provider):
//   - recipe_provider_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - recipe_provider_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - recipe_provider_errors_total{class} (Counter): Errors by class (quota_exhausted, rate_limited, self_throttled, generic)
//   - recipe_provider_fallbacks_total{endpoint} (Counter): Fallback payloads served by endpoint
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(recipe_cache_hits_total[5m])) /
//   (sum(rate(recipe_cache_hits_total[5m])) + sum(rate(recipe_cache_misses_total[5m])))
//
//   # Quota Pressure
//   rate(recipe_provider_errors_total{class="quota_exhausted"}[5m])
//
//   # Self-Throttle Rate
//   rate(recipe_provider_throttles_total[5m])
//
//   # P95 Provider Latency
//   histogram_quantile(0.95, rate(recipe_provider_request_duration_seconds_bucket[5m]))
//
//   # Fallback Serving Rate
//   rate(recipe_provider_fallbacks_total[5m]) / rate(recipe_provider_requests_total[5m])
