// Package etag provides conditional GET support for net/http handlers
// using entity-tags, as described in RFC 7232.
//
// The middleware fingerprints every buffered GET response body with SHA-1,
// sets the result as the Etag header and answers with 304 Not Modified when
// the request's If-None-Match header already names that tag.
//
// # Basic Usage
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//		io.WriteString(w, "OK")
//	})
//
//	// Wrap the application
//	http.ListenAndServe(":8080", etag.Handler(mux))
//
// With a router that takes middlewares at construction time:
//
//	r := chi.NewRouter()
//	r.Use(etag.New(etag.WithLogger(logger)).Handler)
//
// # Matching Rules
//
//   - Only GET requests are considered. HEAD, POST and every other method
//     pass through without an Etag header.
//   - Streamed responses (the handler calls Flush, hijacks the connection
//     or sets Transfer-Encoding: chunked) are never fingerprinted.
//   - If-None-Match may carry several tags; they are compared with the weak
//     comparison function, so W/"x" matches "x".
//   - If-None-Match: * matches any tagged response.
//   - Malformed If-None-Match values never match and never fail.
//
// # Framework-Independent Use
//
// Apply implements the same rules on a Response value, for hosts that do
// not use net/http handlers:
//
//	resp := &etag.Response{
//		StatusCode: http.StatusOK,
//		Header:     http.Header{},
//		Body:       etag.Materialized{Data: body},
//	}
//	if etag.Apply(req.Method, req.Header, resp) == etag.OutcomeNotModified {
//		// resp is now an empty 304
//	}
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - etag_responses_total{outcome} - Responses seen, by Outcome
//   - etag_304_responses_total - 304 Not Modified responses sent
//   - etag_fingerprint_bytes_total - Body bytes hashed
package etag
