package etag

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Middleware applies conditional-GET rules to responses of a downstream handler.
type Middleware struct {
	logger zerolog.Logger
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger used for per-request debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Middleware) {
		m.logger = logger
	}
}

// New creates a Middleware.
func New(opts ...Option) *Middleware {
	m := &Middleware{
		logger: log.With().Str("component", "etag").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps next. GET responses are buffered, tagged with an Etag
// header and answered with 304 Not Modified when the request's
// If-None-Match matches. Other methods and streamed responses pass through.
//
// Panics raised by next are not recovered here.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			m.record(r, OutcomeSkippedMethod, "", 0)
			return
		}

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		resp := rw.response()
		hashed := 0
		if body, ok := resp.Body.(Materialized); ok {
			hashed = len(body.Data)
		}
		outcome := Apply(r.Method, r.Header, resp)
		m.record(r, outcome, resp.Header.Get(HeaderETag), hashed)

		if err := rw.send(resp); err != nil {
			m.logger.Warn().Err(err).
				Str("path", r.URL.Path).
				Msg("Failed to write response body")
		}
	})
}

func (m *Middleware) record(r *http.Request, outcome Outcome, tag string, hashed int) {
	observe(outcome, hashed)

	evt := m.logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("outcome", string(outcome))
	if tag != "" {
		evt = evt.Str("etag", tag)
	}
	if outcome == OutcomeNotModified {
		evt = evt.Str("if_none_match", r.Header.Get(HeaderIfNoneMatch))
	}
	evt.Msg("Conditional GET evaluated")
}

// Handler wraps next with a Middleware using the global logger.
// It has the func(http.Handler) http.Handler shape expected by routers.
func Handler(next http.Handler) http.Handler {
	return New().Handler(next)
}
