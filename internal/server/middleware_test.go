package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/models"
)

type panicLog struct {
	mu      sync.Mutex
	entries []models.ErrorLogEntry
}

func (l *panicLog) Append(_ context.Context, e models.ErrorLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

func (l *panicLog) Recent(_ context.Context, n int) ([]models.ErrorLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[:min(n, len(l.entries))], nil
}

func newTestServer() *Server {
	return &Server{logger: common.NewSilentLogger()}
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestInfo_TagsRequest(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		cookie  string
		route   string
		symbol  string
		session string
	}{
		{name: "dashboard ticker", target: "/?ticker=msft&submit=1", cookie: "sess-1", route: "page", symbol: "MSFT", session: "sess-1"},
		{name: "report path", target: "/api/report/aapl", route: "api", symbol: "AAPL"},
		{name: "mcp", target: "/mcp", route: "mcp"},
		{name: "static asset", target: "/static/css/stockdash.css", route: "static"},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got requestInfo
			handler := s.requestInfoMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = *infoFrom(r.Context())
			}))

			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "stockdash_session", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.route, got.Route)
			assert.Equal(t, tt.symbol, got.Symbol)
			assert.Equal(t, tt.session, got.Session)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, got.ID, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRequestInfo_KeepsCallerID(t *testing.T) {
	s := newTestServer()
	handler := s.requestInfoMiddleware(http.HandlerFunc(ok))

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req-7", w.Header().Get("X-Request-ID"))
}

func TestAccessLog_IncludesSymbolAndSession(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{logger: common.NewLoggerWithOutput("debug", &buf)}
	handler := s.requestInfoMiddleware(s.accessLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	req := httptest.NewRequest("GET", "/api/report/zzzz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	req.AddCookie(&http.Cookie{Name: "stockdash_session", Value: "sess-9"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"/api/report/zzzz", "req-42", "ZZZZ", "sess-9", "404"} {
		assert.Contains(t, out, want)
	}
}

func TestAccessLog_StaticBelowDebug(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{logger: common.NewLoggerWithOutput("debug", &buf)}
	handler := s.requestInfoMiddleware(s.accessLogMiddleware(http.HandlerFunc(ok)))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/static/js/app.js", nil))
	assert.NotContains(t, buf.String(), "/static/js/app.js")

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/?ticker=AAPL", nil))
	assert.Contains(t, buf.String(), "AAPL")
}

func TestCORS_ByRoute(t *testing.T) {
	s := newTestServer()
	handler := s.requestInfoMiddleware(s.corsMiddleware(http.HandlerFunc(ok)))

	tests := []struct {
		target  string
		origin  string
		methods string
	}{
		{target: "/api/report/AAPL", origin: "*", methods: "GET, HEAD, OPTIONS"},
		{target: "/mcp", origin: "*", methods: "GET, POST, DELETE, OPTIONS"},
		{target: "/", origin: "", methods: ""},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", tt.target, nil))

		assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"), tt.target)
		assert.Equal(t, tt.methods, w.Header().Get("Access-Control-Allow-Methods"), tt.target)
	}
}

func TestCORS_MCPPreflight(t *testing.T) {
	s := newTestServer()
	called := false
	handler := s.requestInfoMiddleware(s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/mcp", nil))

	assert.False(t, called, "preflight must not reach the handler")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Mcp-Session-Id")
	assert.Equal(t, "Mcp-Session-Id", w.Header().Get("Access-Control-Expose-Headers"))
}

func TestSecurityHeaders_ByRoute(t *testing.T) {
	s := newTestServer()
	handler := s.requestInfoMiddleware(s.securityHeadersMiddleware(http.HandlerFunc(ok)))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, pageCSP, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/report/AAPL", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestBodyLimit_ByRoute(t *testing.T) {
	s := newTestServer()
	handler := s.requestInfoMiddleware(s.bodyLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		target string
		size   int
		want   int
	}{
		{target: "/", size: maxPageBody, want: http.StatusOK},
		{target: "/", size: maxPageBody + 1, want: http.StatusRequestEntityTooLarge},
		{target: "/mcp", size: 64 << 10, want: http.StatusOK},
		{target: "/mcp", size: maxMCPBody + 1, want: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", tt.target, strings.NewReader(strings.Repeat("x", tt.size))))
		assert.Equal(t, tt.want, w.Code, "%s with %d bytes", tt.target, tt.size)
	}
}

func TestRecovery_APIPanicIsJSONAndLogged(t *testing.T) {
	sink := &panicLog{}
	s := &Server{logger: common.NewSilentLogger(), sink: sink}
	handler := s.requestInfoMiddleware(s.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/report/AAPL", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])

	require.Len(t, sink.entries, 1)
	assert.Contains(t, sink.entries[0].Error, "/api/report/AAPL")
	assert.Contains(t, sink.entries[0].Error, "boom")
}

func TestRecovery_PagePanicIsPlainText(t *testing.T) {
	s := newTestServer()
	handler := s.requestInfoMiddleware(s.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestStatusRecorder_FlushesThrough(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	var _ http.Flusher = rec
	rec.Write([]byte("data: 1\n\n"))
	rec.Flush()

	assert.True(t, w.Flushed)
	assert.Equal(t, 9, rec.bytes)
}
