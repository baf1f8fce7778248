// Package server wires the demo application: a chi router serving a few
// static, dynamic and streamed routes behind an ordered middleware list.
package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Sternrassler/go-etag/internal/visits"
	"github.com/Sternrassler/go-etag/pkg/etag"
	"github.com/Sternrassler/go-etag/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Greeting is the message served by the static routes.
const Greeting = "Hello, etag!"

// Options configures a Server.
type Options struct {
	// Middlewares wrap every route, first entry outermost.
	Middlewares []func(http.Handler) http.Handler

	Logger     zerolog.Logger
	Counter    visits.Counter
	ChunkDelay time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

// Server is the demo HTTP application.
type Server struct {
	Router *chi.Mux

	tmpl       *template.Template
	logger     zerolog.Logger
	counter    visits.Counter
	chunkDelay time.Duration
	now        func() time.Time
}

// New builds the router. Middlewares are applied in order before any
// route is registered.
func New(opts Options) *Server {
	r := chi.NewRouter()
	for _, mw := range opts.Middlewares {
		r.Use(mw)
	}

	s := &Server{
		Router:     r,
		tmpl:       template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger:     opts.Logger.With().Str("component", "server").Logger(),
		counter:    opts.Counter,
		chunkDelay: opts.ChunkDelay,
		now:        opts.Now,
	}
	if s.counter == nil {
		s.counter = visits.NewMemoryCounter()
	}
	if s.now == nil {
		s.now = time.Now
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.handlePlain)
	r.Get("/resource", s.handleResource)
	r.Get("/dynamic", s.handleDynamicPlain)
	r.Get("/dynamic/resource", s.handleDynamicResource)
	r.Get("/chunked", s.handleChunked)
	r.Get("/hello", s.handleHello)
	r.Get("/last_visit", s.handleLastVisit)
	r.Get("/visits", s.handleVisits)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// DefaultMiddlewares returns the pipeline used by the demo binary:
// request ids, real client address, access logging, panic recovery and
// finally conditional GET handling closest to the routes.
func DefaultMiddlewares(logger zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.RealIP,
		hlog.NewHandler(logger),
		hlog.AccessHandler(accessLog),
		chimw.Recoverer,
		etag.New(etag.WithLogger(logger.With().Str("component", "etag").Logger())).Handler,
	}
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Stringer("url", r.URL).
		Str("remote_addr", r.RemoteAddr).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}
