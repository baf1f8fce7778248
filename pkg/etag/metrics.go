package etag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResponsesTotal counts intercepted responses by outcome.
	ResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etag_responses_total",
			Help: "Total number of responses seen by the ETag middleware by outcome",
		},
		[]string{"outcome"}, // see Outcome
	)

	// NotModifiedResponses tracks responses rewritten to 304 Not Modified
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etag_304_responses_total",
			Help: "Total number of 304 Not Modified responses sent",
		},
	)

	// FingerprintBytes tracks the number of body bytes hashed
	FingerprintBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etag_fingerprint_bytes_total",
			Help: "Total number of response body bytes fingerprinted",
		},
	)
)

func observe(outcome Outcome, hashed int) {
	ResponsesTotal.WithLabelValues(string(outcome)).Inc()
	switch outcome {
	case OutcomeNotModified:
		NotModifiedResponses.Inc()
		FingerprintBytes.Add(float64(hashed))
	case OutcomeTagged:
		FingerprintBytes.Add(float64(hashed))
	}
}
