// Package testutil provides testing utilities for the ETag middleware.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock application route.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration

	// Chunks, when set, are written one by one with a flush after each,
	// producing a streamed response. Body is ignored.
	Chunks []string
}

// MockApp is a configurable application server for testing middlewares
// in front of real handlers.
type MockApp struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
}

// NewMockApp creates and starts a mock application. The middlewares wrap
// the application in the given order, the first one being outermost.
func NewMockApp(middlewares ...func(http.Handler) http.Handler) *MockApp {
	mock := &MockApp{
		handlers: make(map[string]http.HandlerFunc),
	}

	var h http.Handler = http.HandlerFunc(mock.serve)
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	mock.server = httptest.NewServer(h)

	return mock
}

func (m *MockApp) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()

	// Track conditional requests
	if r.Header.Get("If-None-Match") != "" {
		m.ConditionalCount++
	}
	handler, exists := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if !exists {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// URL returns the mock server URL.
func (m *MockApp) URL() string {
	return m.server.URL
}

// Client returns an HTTP client configured for the mock server.
func (m *MockApp) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockApp) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockApp) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockApp) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockApp) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, Handler(resp))
}

// GetRequestCount returns the number of requests that reached the application.
func (m *MockApp) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of requests carrying If-None-Match.
func (m *MockApp) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// Handler returns a handler serving resp.
func Handler(resp MockResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		statusCode := resp.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		w.WriteHeader(statusCode)

		if len(resp.Chunks) > 0 {
			rc := http.NewResponseController(w)
			for _, chunk := range resp.Chunks {
				_, _ = w.Write([]byte(chunk))
				_ = rc.Flush()
			}
			return
		}

		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	}
}

// NewTextResponse creates a 200 OK plain text response.
func NewTextResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewStreamingResponse creates a 200 OK response written in flushed chunks.
func NewStreamingResponse(chunks ...string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Chunks:     chunks,
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}
