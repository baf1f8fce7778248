package etag

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
	"strings"
)

// responseWriter buffers a downstream response so that it can be
// fingerprinted once the handler returns. A handler that flushes, hijacks
// or declares a chunked transfer turns it into a pass-through writer and
// the response is treated as streaming.
type responseWriter struct {
	w          http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	streaming  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w: w}
}

// Header implements http.ResponseWriter.
func (w *responseWriter) Header() http.Header {
	return w.w.Header()
}

// WriteHeader implements http.ResponseWriter.
func (w *responseWriter) WriteHeader(statusCode int) {
	if w.streaming {
		w.w.WriteHeader(statusCode)
		return
	}

	// informational responses go out immediately, the final status is still to come
	if statusCode >= 100 && statusCode < 200 && statusCode != http.StatusSwitchingProtocols {
		w.w.WriteHeader(statusCode)
		return
	}

	if w.statusCode != 0 {
		return
	}
	w.statusCode = statusCode

	if chunked(w.Header()) {
		w.startStreaming()
	}
}

// Write implements http.ResponseWriter.
func (w *responseWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.WriteHeader(http.StatusOK)
	}
	if w.streaming {
		return w.w.Write(b)
	}
	return w.body.Write(b)
}

// Flush implements http.Flusher. Flushing marks the response as streaming.
func (w *responseWriter) Flush() {
	_ = w.FlushError()
}

// FlushError is the error-returning form of Flush used by http.ResponseController.
func (w *responseWriter) FlushError() error {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	w.startStreaming()
	return http.NewResponseController(w.w).Flush()
}

// Hijack implements http.Hijacker. A hijacked connection is never fingerprinted.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(w.w).Hijack()
	if err != nil {
		return nil, nil, err
	}
	w.streaming = true
	return conn, rw, nil
}

// Unwrap returns the wrapped writer for http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.w
}

// startStreaming commits the status and anything buffered so far to the
// client and switches to pass-through.
func (w *responseWriter) startStreaming() {
	if w.streaming {
		return
	}
	w.streaming = true
	w.w.WriteHeader(w.statusCode)
	if w.body.Len() > 0 {
		_, _ = w.w.Write(w.body.Bytes())
	}
	w.body.Reset()
}

// response returns the buffered response as seen by Apply.
func (w *responseWriter) response() *Response {
	if w.streaming {
		return &Response{StatusCode: w.statusCode, Header: w.Header(), Body: Streaming{}}
	}

	statusCode := w.statusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	return &Response{
		StatusCode: statusCode,
		Header:     w.Header(),
		Body:       Materialized{Data: w.body.Bytes()},
	}
}

// send writes resp to the client. Streaming responses were already sent.
func (w *responseWriter) send(resp *Response) error {
	if w.streaming {
		return nil
	}

	w.w.WriteHeader(resp.StatusCode)
	body, ok := resp.Body.(Materialized)
	if !ok || len(body.Data) == 0 {
		return nil
	}
	if _, err := w.w.Write(body.Data); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		return err
	}
	return nil
}

func chunked(h http.Header) bool {
	for _, te := range h.Values("Transfer-Encoding") {
		if strings.Contains(strings.ToLower(te), "chunked") {
			return true
		}
	}
	return false
}
