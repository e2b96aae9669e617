package server

import (
	"net/http"

	"github.com/bobmcallan/stockdash/internal/handlers"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Dashboard page; query parameters are UI events
	mux.Handle("/", s.app.DashboardHandler)

	// Static files (CSS, JS, images)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// API routes
	mux.Handle("GET /api/report/{symbol}", s.app.ReportHandler)
	mux.HandleFunc("/api/errors", s.app.ErrorLogHandler.ServeHTTP)
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// MCP endpoint (streamable HTTP)
	mux.Handle("/mcp", s.app.MCPHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, http.StatusNotFound, "no such endpoint: "+r.URL.Path)
}
