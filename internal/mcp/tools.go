package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/dashboard"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

// Renderer runs one render cycle.
type Renderer interface {
	Render(ctx context.Context, state dashboard.State) (*dashboard.View, error)
}

// Error log listing bounds.
const (
	defaultErrorLimit = 20
	maxErrorLimit     = 200
)

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// jsonResult marshals v into a single text content block.
func jsonResult(v interface{}) *mcp.CallToolResult {
	out, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(out))},
	}
}

func statementNames() []string {
	names := make([]string, len(models.Statements))
	for i, st := range models.Statements {
		names[i] = string(st)
	}
	return names
}

func timeframeNames() []string {
	names := make([]string, len(models.Timeframes))
	for i, tf := range models.Timeframes {
		names[i] = string(tf)
	}
	return names
}

// ReportTool defines get_stock_report.
func ReportTool() mcp.Tool {
	return mcp.NewTool("get_stock_report",
		mcp.WithDescription("Get key metrics, financial ratios, one financial statement, the close price series and recent news for a ticker."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol, e.g. AAPL or RELIANCE.NS"),
		),
		mcp.WithString("statement",
			mcp.Description("Financial statement to include (default balance_sheet)"),
			mcp.Enum(statementNames()...),
		),
		mcp.WithString("timeframe",
			mcp.Description("Price history range (default 1mo)"),
			mcp.Enum(timeframeNames()...),
		),
	)
}

// ReportToolHandler renders the requested report as JSON.
func ReportToolHandler(renderer Renderer, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state := dashboard.NewState(r.GetString("symbol", ""))

		if v := r.GetString("statement", ""); v != "" {
			st, err := models.ParseStatement(v)
			if err != nil {
				return errorResult(err.Error()), nil
			}
			state.Statement = st
		}
		if v := r.GetString("timeframe", ""); v != "" {
			tf, err := models.ParseTimeframe(v)
			if err != nil {
				return errorResult(err.Error()), nil
			}
			state.Timeframe = tf
		}

		view, err := renderer.Render(ctx, state)
		if err != nil {
			var re *dashboard.ResolutionError
			if !errors.As(err, &re) {
				logger.Warn().Err(err).Str("symbol", state.Symbol).Msg("MCP report failed")
			}
			return errorResult(dashboard.UserMessage(err)), nil
		}
		return jsonResult(view), nil
	}
}

// ErrorsTool defines get_recent_errors.
func ErrorsTool() mcp.Tool {
	return mcp.NewTool("get_recent_errors",
		mcp.WithDescription("List the most recent unhandled dashboard errors, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default 20, max 200)"),
		),
	)
}

// ErrorsToolHandler lists error log entries.
func ErrorsToolHandler(sink interfaces.ErrorLogSink, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := defaultErrorLimit
		if args := r.GetArguments(); args != nil {
			if v, ok := args["limit"].(float64); ok {
				if v < 1 {
					return errorResult("limit must be a positive integer"), nil
				}
				limit = min(int(v), maxErrorLimit)
			}
		}

		entries := []models.ErrorLogEntry{}
		if sink != nil {
			recent, err := sink.Recent(ctx, limit)
			if err != nil {
				logger.Error().Err(err).Msg("failed to read error log")
				return errorResult("failed to read error log"), nil
			}
			entries = recent
		}
		return jsonResult(map[string]interface{}{
			"entries": entries,
			"count":   len(entries),
		}), nil
	}
}

// VersionTool defines get_version.
func VersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the stockdash version. Use this to verify connectivity."),
	)
}

// VersionToolHandler returns the build metadata.
func VersionToolHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(config.CurrentBuild()), nil
	}
}
