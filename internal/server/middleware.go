package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stockdash/internal/handlers"
	"github.com/bobmcallan/stockdash/internal/models"
)

// Request body limits. Page and API routes are read-only so anything beyond
// a small form is rejected; MCP carries JSON-RPC payloads.
const (
	maxPageBody = 4 << 10
	maxMCPBody  = 1 << 20
)

const pageCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

type requestKey struct{}

// requestInfo is what the access log knows about a request.
type requestInfo struct {
	ID      string
	Route   string
	Symbol  string
	Session string
}

func infoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestKey{}).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

// routeClass buckets a path into page, static, api or mcp.
func routeClass(path string) string {
	switch {
	case path == "/mcp" || strings.HasPrefix(path, "/mcp/"):
		return "mcp"
	case strings.HasPrefix(path, "/api/"):
		return "api"
	case strings.HasPrefix(path, "/static/"):
		return "static"
	default:
		return "page"
	}
}

// requestSymbol finds the ticker a request is about, if any.
func requestSymbol(r *http.Request) string {
	if rest, ok := strings.CutPrefix(r.URL.Path, "/api/report/"); ok {
		return strings.ToUpper(strings.Trim(rest, "/"))
	}
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
}

// withMiddleware wraps the router with the middleware chain.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	// Applied in reverse order (last applied = first executed)
	handler = s.recoveryMiddleware(handler)
	handler = s.bodyLimitMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.securityHeadersMiddleware(handler)
	handler = s.accessLogMiddleware(handler)
	handler = s.requestInfoMiddleware(handler)
	return handler
}

// requestInfoMiddleware tags the request with an ID, its route class, the
// symbol it names and the dashboard session cookie.
func (s *Server) requestInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		info := &requestInfo{
			ID:     id,
			Route:  routeClass(r.URL.Path),
			Symbol: requestSymbol(r),
		}
		if c, err := r.Cookie(handlers.SessionCookie); err == nil {
			info.Session = c.Value
		}

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestKey{}, info)))
	})
}

// accessLogMiddleware writes one line per request. Static assets log at
// trace so page loads do not flood debug output.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		info := infoFrom(r.Context())

		event := s.logger.Debug
		switch {
		case rec.status >= 500:
			event = s.logger.Error
		case rec.status >= 400:
			event = s.logger.Warn
		case info.Route == "static":
			event = s.logger.Trace
		}

		e := event().
			Str("request_id", info.ID).
			Str("route", info.Route).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int("bytes", rec.bytes)
		if info.Symbol != "" {
			e = e.Str("symbol", info.Symbol)
		}
		if info.Session != "" {
			e = e.Str("session", info.Session)
		}
		e.Msg("HTTP request")
	})
}

// corsMiddleware opens the read-only API and the MCP endpoint to other
// origins. The dashboard page stays same-origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var methods, headers string
		switch infoFrom(r.Context()).Route {
		case "api":
			methods, headers = "GET, HEAD, OPTIONS", "Content-Type"
		case "mcp":
			methods, headers = "GET, POST, DELETE, OPTIONS", "Content-Type, Mcp-Session-Id, Mcp-Protocol-Version"
			w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
		default:
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", headers)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware sets headers per route class. JSON responses
// are live market data and must not be cached.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		switch infoFrom(r.Context()).Route {
		case "page":
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", pageCSP)
		case "api", "mcp":
			h.Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}

// bodyLimitMiddleware caps request bodies by route class.
func (s *Server) bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.Body != http.NoBody {
			limit := int64(maxPageBody)
			if infoFrom(r.Context()).Route == "mcp" {
				limit = maxMCPBody
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a panic into a 500 and records it in the error
// log alongside render failures.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			if rv == http.ErrAbortHandler {
				panic(rv)
			}
			info := infoFrom(r.Context())

			s.logger.WithCorrelationId(info.ID).Error().
				Str("error", fmt.Sprintf("%v", rv)).
				Str("path", r.URL.Path).
				Msg("panic recovered")

			if s.sink != nil {
				now := time.Now()
				entry := models.ErrorLogEntry{
					Timestamp:     now,
					TimestampText: now.Format("2006-01-02 15:04:05"),
					Error:         fmt.Sprintf("%s %s: panic: %v", r.Method, r.URL.Path, rv),
				}
				if err := s.sink.Append(context.WithoutCancel(r.Context()), entry); err != nil {
					s.logger.Error().Err(err).Msg("failed to record panic in error log")
				}
			}

			if info.Route == "api" || info.Route == "mcp" {
				handlers.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code and body size. It passes Flush
// and Hijack through so MCP event streams keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rec.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
