package handlers

import (
	"context"
	"html/template"
	"net/http"
	"net/url"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/dashboard"
	"github.com/bobmcallan/stockdash/internal/models"
	"github.com/bobmcallan/stockdash/internal/session"
	"github.com/bobmcallan/stockdash/internal/watchlist"
)

// SessionCookie carries the browser's session ID.
const SessionCookie = "stockdash_session"

// Session value keys.
const (
	keySymbol    = "symbol"
	keyStatement = "statement"
	keyTimeframe = "timeframe"
)

// Renderer runs one render cycle.
type Renderer interface {
	Render(ctx context.Context, state dashboard.State) (*dashboard.View, error)
}

// DashboardPage is the template data for dashboard.html.
type DashboardPage struct {
	Title      string
	Message    string
	State      dashboard.State
	View       *dashboard.View
	Statements []models.Statement
	Timeframes []models.Timeframe
	Watchlist  []watchlist.Group
	Version    string
}

// DashboardHandler serves the dashboard page. Query parameters are events applied to
// the session's state before rendering.
type DashboardHandler struct {
	logger    *common.Logger
	templates *template.Template
	renderer  Renderer
	sessions  *session.Store
	watchlist []watchlist.Group
	secure    bool
	refreshFn func(symbol string)
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(logger *common.Logger, renderer Renderer, sessions *session.Store, groups []watchlist.Group, secure bool) *DashboardHandler {
	return &DashboardHandler{
		logger:    logger,
		templates: loadTemplates(FindPagesDir()),
		renderer:  renderer,
		sessions:  sessions,
		watchlist: groups,
		secure:    secure,
	}
}

// SetRefreshFn sets a function called with the symbol whenever a ticker is submitted,
// before the render. It is used to drop cached provider responses for that symbol.
func (h *DashboardHandler) SetRefreshFn(fn func(symbol string)) {
	h.refreshFn = fn
}

// ServeHTTP handles GET /.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx := r.Context()
	sess := h.session(w, r)

	unlock := h.sessions.Lock(sess.ID)
	defer unlock()
	if latest, ok := h.sessions.Get(ctx, sess.ID); ok {
		sess = latest
	}

	state := dashboard.State{
		Symbol:    sess.Get(keySymbol),
		Statement: models.Statement(sess.Get(keyStatement)),
		Timeframe: models.Timeframe(sess.Get(keyTimeframe)),
	}.Normalize()
	state, submitted := h.applyEvents(state, r.URL.Query())

	page := DashboardPage{
		State:      state,
		Statements: models.Statements,
		Timeframes: models.Timeframes,
		Watchlist:  h.watchlist,
		Version:    config.CurrentBuild().Version,
	}

	if submitted && state.Symbol != "" && h.refreshFn != nil {
		h.refreshFn(state.Symbol)
	}

	if state.Symbol != "" || submitted {
		view, err := h.renderer.Render(ctx, state)
		page.Message = dashboard.UserMessage(err)
		page.View = view
		if view != nil {
			page.Title = view.Title
		}
	}

	sess.Set(keySymbol, state.Symbol)
	sess.Set(keyStatement, string(state.Statement))
	sess.Set(keyTimeframe, string(state.Timeframe))
	if err := h.sessions.Save(ctx, sess); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to save session")
	}

	if err := h.templates.ExecuteTemplate(w, "dashboard.html", page); err != nil {
		h.logger.Error().Str("template", "dashboard.html").Err(err).Msg("failed to render dashboard")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// applyEvents applies ticker, statement and timeframe events in that order.
// It reports whether a ticker was submitted, including an empty one.
func (h *DashboardHandler) applyEvents(state dashboard.State, q url.Values) (dashboard.State, bool) {
	events := make([]dashboard.Event, 0, 3)
	submitted := q.Has("ticker")
	if submitted {
		events = append(events, dashboard.Event{Kind: dashboard.SubmitTicker, Value: q.Get("ticker")})
	}
	if q.Has("statement") {
		events = append(events, dashboard.Event{Kind: dashboard.SelectStatement, Value: q.Get("statement")})
	}
	if q.Has("timeframe") {
		events = append(events, dashboard.Event{Kind: dashboard.SelectTimeframe, Value: q.Get("timeframe")})
	}

	for _, e := range events {
		next, err := state.Apply(e)
		if err != nil {
			h.logger.Debug().Str("event", e.Kind.String()).Str("value", e.Value).Err(err).Msg("event rejected")
			continue
		}
		state = next
	}
	return state, submitted
}

// session returns the request's session, issuing a new cookie when absent or expired.
func (h *DashboardHandler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := h.sessions.Get(r.Context(), c.Value); ok {
			return sess
		}
	}

	sess := h.sessions.New()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}
