// Package metrics provides the Prometheus registry and scrape handler used
// by go-etag. Metrics are defined in their respective packages (etag) to keep
// them next to the code that updates them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler exposing all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// ETag Metrics (pkg/etag):
//   - etag_responses_total{outcome} (Counter): Responses seen by the middleware,
//     outcome is one of tagged, not_modified, skipped_method, skipped_streaming,
//     no_fingerprint
//   - etag_304_responses_total (Counter): 304 Not Modified responses sent
//   - etag_fingerprint_bytes_total (Counter): Response body bytes hashed
//
// Example Prometheus Queries:
//
//   # 304 rate among tagged GET responses
//   rate(etag_304_responses_total[5m]) /
//   sum(rate(etag_responses_total{outcome=~"tagged|not_modified"}[5m]))
//
//   # Streamed responses bypassing the middleware
//   rate(etag_responses_total{outcome="skipped_streaming"}[5m])
//
//   # Average hashed body size
//   rate(etag_fingerprint_bytes_total[5m]) /
//   sum(rate(etag_responses_total{outcome=~"tagged|not_modified"}[5m]))
