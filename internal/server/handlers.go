package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeText(w, "ok")
}

func (s *Server) handlePlain(w http.ResponseWriter, r *http.Request) {
	s.writeText(w, Greeting)
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"message": Greeting})
}

func (s *Server) handleDynamicPlain(w http.ResponseWriter, r *http.Request) {
	s.writeText(w, "Last visited: "+s.lastVisit())
}

func (s *Server) handleDynamicResource(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"last_visit": json.Number(s.lastVisit())})
}

// handleChunked writes two flushed parts separated by the chunk delay.
// The flush turns the response into a stream, so it is never tagged.
func (s *Server) handleChunked(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentTypeText)
	rc := http.NewResponseController(w)

	if _, err := w.Write([]byte("OK")); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to flush chunk")
	}

	select {
	case <-time.After(s.chunkDelay):
	case <-r.Context().Done():
		return
	}

	if _, err := w.Write([]byte("GOOD")); err != nil {
		s.logger.Debug().Err(err).Msg("Client went away before last chunk")
	}
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "hello.html", map[string]any{"Message": Greeting})
}

func (s *Server) handleLastVisit(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "last_visit.html", map[string]any{
		"Message":   Greeting,
		"LastVisit": s.lastVisit(),
	})
}

func (s *Server) handleVisits(w http.ResponseWriter, r *http.Request) {
	n, err := s.counter.Incr(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Visit counter unavailable")
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "visit counter unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"visits": n})
}

// lastVisit formats the current time as fractional Unix seconds.
func (s *Server) lastVisit() string {
	now := s.now()
	return strconv.FormatFloat(float64(now.UnixNano())/float64(time.Second), 'f', -1, 64)
}

func (s *Server) writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", contentTypeText)
	if _, err := w.Write([]byte(text)); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).
			Str("path", r.URL.Path).
			Msg("Render template failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
