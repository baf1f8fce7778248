package etag

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/go-etag/internal/testutil"
)

func newApp(t *testing.T) *testutil.MockApp {
	t.Helper()
	app := testutil.NewMockApp(New(WithLogger(zerolog.Nop())).Handler)
	t.Cleanup(app.Close)
	return app
}

func do(t *testing.T, app *testutil.MockApp, method, path, ifNoneMatch string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, app.URL()+path, nil)
	require.NoError(t, err)
	if ifNoneMatch != "" {
		req.Header.Set(HeaderIfNoneMatch, ifNoneMatch)
	}

	resp, err := app.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHandler_TextETag(t *testing.T) {
	app := newApp(t)
	app.SetResponse("/", testutil.NewTextResponse("OK"))

	resp, body := do(t, app, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
	assert.Equal(t, `"9ce3bd4224c8c1780db56b4125ecf3f24bf748b7"`, resp.Header.Get(HeaderETag))
}

func TestHandler_ETagMatched(t *testing.T) {
	app := newApp(t)
	app.SetResponse("/", testutil.NewTextResponse("OK"))

	resp, body := do(t, app, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", body)
	tag := resp.Header.Get(HeaderETag)
	require.NotEmpty(t, tag)

	resp, body = do(t, app, http.MethodGet, "/", tag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Equal(t, tag, resp.Header.Get(HeaderETag))
	assert.Empty(t, body)

	resp, body = do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tag, resp.Header.Get(HeaderETag))
	assert.Equal(t, "OK", body)

	// the application still runs for conditional requests
	assert.Equal(t, 3, app.GetRequestCount())
	assert.Equal(t, 1, app.GetConditionalCount())
}

func TestHandler_ETagNotMatched(t *testing.T) {
	app := newApp(t)
	app.SetResponse("/", testutil.NewTextResponse("OK"))

	resp, _ := do(t, app, http.MethodGet, "/", "")
	oldTag := resp.Header.Get(HeaderETag)
	require.NotEmpty(t, oldTag)

	app.SetResponse("/", testutil.NewTextResponse("GOOD"))

	resp, body := do(t, app, http.MethodGet, "/", oldTag)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GOOD", body)
	newTag := resp.Header.Get(HeaderETag)
	assert.NotEqual(t, oldTag, newTag)
	assert.Equal(t, `"7763d377b925fc016d9fde44fe2afa2332a30fd2"`, newTag)

	resp, body = do(t, app, http.MethodGet, "/", newTag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Equal(t, newTag, resp.Header.Get(HeaderETag))
	assert.Empty(t, body)
}

func TestHandler_WildcardMatched(t *testing.T) {
	app := newApp(t)
	app.SetResponse("/", testutil.NewTextResponse("OK"))

	resp, body := do(t, app, http.MethodGet, "/", "*")
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Empty(t, body)
	tag := resp.Header.Get(HeaderETag)
	require.NotEmpty(t, tag)

	app.SetResponse("/", testutil.NewTextResponse("GOOD"))

	resp, body = do(t, app, http.MethodGet, "/", "*")
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Empty(t, body)
	assert.NotEqual(t, tag, resp.Header.Get(HeaderETag))
}

func TestHandler_WeakEntityTag(t *testing.T) {
	app := newApp(t)
	app.SetResponse("/", testutil.NewTextResponse("OK"))

	resp, _ := do(t, app, http.MethodGet, "/", "")
	tag := resp.Header.Get(HeaderETag)
	require.NotEmpty(t, tag)

	resp, body := do(t, app, http.MethodGet, "/", "W/"+tag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Equal(t, tag, resp.Header.Get(HeaderETag))
	assert.Empty(t, body)
}

func TestHandler_MultipleEntityTags(t *testing.T) {
	app := newApp(t)
	app.SetResponse("/", testutil.NewTextResponse("OK"))

	tag := Compute([]byte("OK"))
	resp, body := do(t, app, http.MethodGet, "/", `"stale", W/"older", `+tag)

	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Empty(t, body)
}

func TestHandler_NotGetMethod(t *testing.T) {
	methods := []string{
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodHead,
		http.MethodPatch,
		http.MethodOptions,
	}

	app := newApp(t)
	app.SetResponse("/", testutil.NewTextResponse("OK"))

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			resp, body := do(t, app, method, "/", "*")

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Empty(t, resp.Header.Get(HeaderETag))
			if method != http.MethodHead {
				assert.Equal(t, "OK", body)
			}
		})
	}
}

func TestHandler_ChunkedResponse(t *testing.T) {
	app := newApp(t)
	app.SetResponse("/", testutil.NewStreamingResponse("OK", "GOOD"))

	resp, body := do(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OKGOOD", body)
	assert.Equal(t, []string{"chunked"}, resp.TransferEncoding)
	assert.Empty(t, resp.Header.Get(HeaderETag))

	resp, body = do(t, app, http.MethodGet, "/", "*")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OKGOOD", body)
	assert.Empty(t, resp.Header.Get(HeaderETag))
}

func TestHandler_ExplicitChunkedHeader(t *testing.T) {
	h := New(WithLogger(zerolog.Nop())).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderIfNoneMatch, "*")

	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Empty(t, w.Header().Get(HeaderETag))
}

func TestHandler_JSONContentTypeKept(t *testing.T) {
	payload := `{"last_visit": 1700000000.5}`
	h := New(WithLogger(zerolog.Nop())).Handler(testutil.Handler(testutil.NewJSONResponse(payload)))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, payload, w.Body.String())
	tag := w.Header().Get(HeaderETag)
	require.NotEmpty(t, tag)

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderIfNoneMatch, tag)
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, tag, w.Header().Get(HeaderETag))
	assert.Zero(t, w.Body.Len())
}

func TestHandler_StatusCodeKept(t *testing.T) {
	h := New(WithLogger(zerolog.Nop())).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing\n", w.Body.String())
	assert.Equal(t, Compute([]byte("missing\n")), w.Header().Get(HeaderETag))
}

func TestHandler_EmptyBody(t *testing.T) {
	h := New(WithLogger(zerolog.Nop())).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"da39a3ee5e6b4b0d3255bfef95601890afd80709"`, w.Header().Get(HeaderETag))
}

func TestHandler_PanicPropagates(t *testing.T) {
	h := New(WithLogger(zerolog.Nop())).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()

	assert.PanicsWithValue(t, "boom", func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Empty(t, w.Header().Get(HeaderETag))
}

func TestHandler_Metrics(t *testing.T) {
	h := New(WithLogger(zerolog.Nop())).Handler(testutil.Handler(testutil.NewTextResponse("OK")))
	before := promtestutil.ToFloat64(NotModifiedResponses)
	beforeTagged := promtestutil.ToFloat64(ResponsesTotal.WithLabelValues(string(OutcomeTagged)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderIfNoneMatch, "*")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, before+1, promtestutil.ToFloat64(NotModifiedResponses))
	assert.Equal(t, beforeTagged+1, promtestutil.ToFloat64(ResponsesTotal.WithLabelValues(string(OutcomeTagged))))
}

func TestHandler_Logging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)
	h := New(WithLogger(logger)).Handler(testutil.Handler(testutil.NewTextResponse("OK")))

	r := httptest.NewRequest(http.MethodGet, "/page", nil)
	r.Header.Set(HeaderIfNoneMatch, "*")
	h.ServeHTTP(httptest.NewRecorder(), r)

	out := buf.String()
	assert.True(t, strings.Contains(out, `"outcome":"not_modified"`), out)
	assert.True(t, strings.Contains(out, `"path":"/page"`), out)
	assert.True(t, strings.Contains(out, Compute([]byte("OK"))[1:41]), out)
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	assert.Same(t, rec, rw.Unwrap())
}

func TestResponseWriter_InformationalStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusEarlyHints)
	_, _ = rw.Write([]byte("OK"))
	resp := rw.response()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, Materialized{Data: []byte("OK")}, resp.Body)
}
