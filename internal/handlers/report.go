package handlers

import (
	"errors"
	"net/http"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/dashboard"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
)

// ReportHandler serves GET /api/report/{symbol}. It keeps no session state.
type ReportHandler struct {
	logger   *common.Logger
	renderer Renderer
}

// NewReportHandler creates a new report handler.
func NewReportHandler(logger *common.Logger, renderer Renderer) *ReportHandler {
	return &ReportHandler{logger: logger, renderer: renderer}
}

// ServeHTTP renders the report for the path symbol as JSON.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	state := dashboard.NewState(r.PathValue("symbol"))
	q := r.URL.Query()
	if v := q.Get("statement"); v != "" {
		st, err := models.ParseStatement(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		state.Statement = st
	}
	if v := q.Get("timeframe"); v != "" {
		tf, err := models.ParseTimeframe(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		state.Timeframe = tf
	}

	view, err := h.renderer.Render(r.Context(), state)
	if err != nil {
		var re *dashboard.ResolutionError
		if errors.As(err, &re) {
			WriteError(w, http.StatusNotFound, re.UserMessage())
			return
		}
		WriteError(w, http.StatusInternalServerError, dashboard.UserMessage(err))
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// Error log listing bounds.
const (
	DefaultErrorLimit = 20
	MaxErrorLimit     = 200
)

// ErrorLogHandler serves GET /api/errors.
type ErrorLogHandler struct {
	logger *common.Logger
	sink   interfaces.ErrorLogSink
}

// NewErrorLogHandler creates a new error log handler. sink may be nil.
func NewErrorLogHandler(logger *common.Logger, sink interfaces.ErrorLogSink) *ErrorLogHandler {
	return &ErrorLogHandler{logger: logger, sink: sink}
}

// ServeHTTP lists the most recent error log entries, newest first.
func (h *ErrorLogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, err := QueryLimit(r, DefaultErrorLimit, MaxErrorLimit)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := []models.ErrorLogEntry{}
	if h.sink != nil {
		recent, err := h.sink.Recent(r.Context(), limit)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to read error log")
			WriteError(w, http.StatusInternalServerError, "failed to read error log")
			return
		}
		entries = recent
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
