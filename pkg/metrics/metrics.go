// Package metrics exposes the Prometheus registry used by the Brawl Stars
// client. All metrics are defined in their respective packages (client,
// cache, ratelimit) and registered via promauto on import.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every client metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - brawl_requests_total{endpoint, status} (Counter): Requests by endpoint and outcome (ok, cache_hit, HTTP status, network)
//   - brawl_request_duration_seconds{endpoint} (Histogram): Logical request duration including retries
//   - brawl_errors_total{class} (Counter): Failed attempts by error class
//
// Retry Metrics (pkg/client):
//   - brawl_retries_total{error_class} (Counter): Retries after access_denied or rate_limited
//   - brawl_retry_backoff_seconds (Histogram): Backoff waits after throttling
//   - brawl_retry_exhausted_total{error_class} (Counter): Requests that used every attempt
//   - brawl_credential_rotations_total (Counter): Rotations to the next token after a 403
//
// Cache Metrics (pkg/cache):
//   - brawl_cache_hits_total{layer} (Counter): Hits by layer (memory, redis)
//   - brawl_cache_misses_total{layer} (Counter): Misses by layer
//   - brawl_cache_entries{layer="memory"} (Gauge): Live in-memory entries
//   - brawl_cache_evictions_total{layer} (Counter): Entries evicted by the size bound
//   - brawl_cache_expirations_total{layer} (Counter): Entries dropped after their TTL
//   - brawl_cache_errors_total{operation} (Counter): Redis tier failures
//
// Rate Limit Metrics (pkg/ratelimit):
//   - brawl_ratelimit_acquisitions_total{outcome} (Counter): Token acquisitions (immediate, waited, cancelled)
//   - brawl_ratelimit_wait_seconds (Histogram): Time spent waiting for a token
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(brawl_cache_hits_total[5m])) /
//   (sum(rate(brawl_cache_hits_total[5m])) + sum(rate(brawl_cache_misses_total{layer="memory"}[5m])))
//
//   # Throttling Pressure
//   rate(brawl_errors_total{class="rate_limited"}[5m])
//
//   # Dead Tokens
//   rate(brawl_credential_rotations_total[15m]) > 0
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(brawl_request_duration_seconds_bucket[5m]))
