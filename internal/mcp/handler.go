// Package mcp exposes the dashboard report as Model Context Protocol tools.
package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/interfaces"
)

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	server     *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates an MCP handler with the report, error log and version tools.
// sink may be nil, in which case get_recent_errors returns an empty list.
func NewHandler(renderer Renderer, sink interfaces.ErrorLogSink, logger *common.Logger) *Handler {
	s := mcpserver.NewMCPServer(
		"stockdash",
		config.CurrentBuild().Version,
		mcpserver.WithToolCapabilities(true),
	)

	s.AddTool(ReportTool(), ReportToolHandler(renderer, logger))
	s.AddTool(ErrorsTool(), ErrorsToolHandler(sink, logger))
	s.AddTool(VersionTool(), VersionToolHandler())

	streamable := mcpserver.NewStreamableHTTPServer(s,
		mcpserver.WithStateLess(true),
	)

	logger.Info().Int("tools", 3).Msg("MCP handler initialized")

	return &Handler{
		server:     s,
		streamable: streamable,
		logger:     logger,
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.streamable == nil {
		http.Error(w, "MCP endpoint not configured", http.StatusServiceUnavailable)
		return
	}
	h.streamable.ServeHTTP(w, r)
}
