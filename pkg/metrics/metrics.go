// Package metrics exposes the Prometheus metrics of the PokeAPI client.
// The metrics themselves are defined in their packages (client, cache) and
// registered via promauto on the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all package metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler serves from.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - pokeapi_requests_total{kind, status} (Counter): network requests by resource kind and HTTP status
//   - pokeapi_request_duration_seconds{kind} (Histogram): network request duration
//   - pokeapi_errors_total{class} (Counter): failed fetches by class (network, client, server, decode)
//   - pokeapi_cache_fresh_hits_total (Counter): fetches served without network I/O
//   - pokeapi_cache_revalidations_total{result} (Counter): conditional requests (not_modified, modified)
//   - pokeapi_cache_store_failures_total{operation} (Counter): store errors the client ignored
//
// Store Metrics (pkg/cache), layer is one of memory, disk, redis:
//   - pokeapi_cache_hits_total{layer} (Counter)
//   - pokeapi_cache_misses_total{layer} (Counter)
//   - pokeapi_cache_corrupt_records_total{layer} (Counter): undecodable records treated as misses
//   - pokeapi_cache_writes_total{layer} (Counter)
//   - pokeapi_cache_write_bytes_total{layer} (Counter): encoded record bytes written
//   - pokeapi_cache_errors_total{layer, operation} (Counter): store I/O errors
//
// Example Prometheus Queries:
//
//   # Share of fetches answered without the network
//   rate(pokeapi_cache_fresh_hits_total[5m]) /
//   (rate(pokeapi_cache_fresh_hits_total[5m]) + sum(rate(pokeapi_requests_total[5m])))
//
//   # Revalidations that saved a body transfer
//   rate(pokeapi_cache_revalidations_total{result="not_modified"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, sum by (le) (rate(pokeapi_request_duration_seconds_bucket[5m])))
