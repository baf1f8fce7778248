package etag

import "net/http"

// Header names used by the interception step.
const (
	HeaderETag        = "Etag"
	HeaderIfNoneMatch = "If-None-Match"
)

// Response is the post-processing view of a response produced by a
// downstream handler.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       Body
}

// Outcome describes what Apply did to a response.
type Outcome string

const (
	// OutcomeSkippedMethod means the request method was not GET.
	OutcomeSkippedMethod Outcome = "skipped_method"

	// OutcomeSkippedStreaming means the response body was streamed.
	OutcomeSkippedStreaming Outcome = "skipped_streaming"

	// OutcomeNoFingerprint means no entity-tag could be computed.
	OutcomeNoFingerprint Outcome = "no_fingerprint"

	// OutcomeTagged means the Etag header was set and the response left as is.
	OutcomeTagged Outcome = "tagged"

	// OutcomeNotModified means the response was rewritten to an empty 304.
	OutcomeNotModified Outcome = "not_modified"
)

// Apply runs the conditional-GET rules against resp, which answers a request
// with the given method and headers. It sets the Etag header on GET responses
// with a materialized body and, when the request's If-None-Match matches,
// turns resp into a 304 Not Modified with an empty body. All other headers
// are kept.
func Apply(method string, reqHeader http.Header, resp *Response) Outcome {
	if method != http.MethodGet {
		return OutcomeSkippedMethod
	}

	if _, streaming := resp.Body.(Streaming); streaming {
		return OutcomeSkippedStreaming
	}

	tag, ok := Fingerprint(resp.Body)
	if !ok {
		return OutcomeNoFingerprint
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	resp.Header.Set(HeaderETag, tag)

	if !CheckIfNoneMatch(reqHeader.Get(HeaderIfNoneMatch), resp.Header.Get(HeaderETag)) {
		return OutcomeTagged
	}

	resp.StatusCode = http.StatusNotModified
	resp.Body = Materialized{}
	return OutcomeNotModified
}
