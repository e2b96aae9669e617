package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/dashboard"
	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/models"
	"github.com/bobmcallan/stockdash/internal/provider/memory"
	"github.com/bobmcallan/stockdash/internal/report"
	"github.com/bobmcallan/stockdash/internal/session"
	"github.com/bobmcallan/stockdash/internal/watchlist"
)

type memSink struct {
	mu      sync.Mutex
	entries []models.ErrorLogEntry
}

func (s *memSink) Append(_ context.Context, e models.ErrorLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memSink) Recent(_ context.Context, n int) ([]models.ErrorLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ErrorLogEntry{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func newTestOrchestrator(t *testing.T, p *memory.Provider, sink *memSink) *dashboard.Orchestrator {
	t.Helper()
	f, err := format.New("en-US", "USD")
	if err != nil {
		t.Fatalf("format.New: %v", err)
	}
	return dashboard.New(p, report.NewBuilder(f, report.PolicyCurrency), sink, common.NewSilentLogger())
}

func newTestDashboard(t *testing.T, p *memory.Provider, sink *memSink) *DashboardHandler {
	t.Helper()
	logger := common.NewSilentLogger()
	return NewDashboardHandler(logger, newTestOrchestrator(t, p, sink), session.NewStore(nil, 0, logger), watchlist.Default(), false)
}

func get(t *testing.T, h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("expected %s cookie to be set", SessionCookie)
	return nil
}

func TestDashboardHandler_FirstVisitShowsPrompt(t *testing.T) {
	p := memory.Sample()
	w := get(t, newTestDashboard(t, p, nil), "/")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Enter Ticker for stock info. Eg. AAPL.") {
		t.Error("expected ticker prompt")
	}
	if !strings.Contains(body, "https://finance.yahoo.com/lookup/") {
		t.Error("expected lookup link")
	}
	if strings.Contains(body, "Key Metrics") {
		t.Error("expected no report before a ticker is submitted")
	}
	if len(p.Calls()) != 0 {
		t.Errorf("expected no provider calls, got %v", p.Calls())
	}
	if c := sessionCookie(t, w); !c.HttpOnly {
		t.Error("expected session cookie to be httpOnly")
	}
}

func TestDashboardHandler_SubmitTickerRendersReport(t *testing.T) {
	w := get(t, newTestDashboard(t, memory.Sample(), nil), "/?ticker=demo")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Demo Industries Ltd",
		"Key Metrics",
		"Financial Ratios",
		`class="row-asset"`,
		`class="row-liability"`,
		"<polyline",
		"Posted on : 2024-03-08 00:00:00",
		"Read Full",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
	if strings.Count(body, `href="/?statement=`) != 3 {
		t.Error("expected 3 statement buttons")
	}
	if strings.Count(body, `href="/?timeframe=`) != 11 {
		t.Error("expected 11 timeframe buttons")
	}
}

func TestDashboardHandler_SessionKeepsTicker(t *testing.T) {
	h := newTestDashboard(t, memory.Sample(), nil)

	first := get(t, h, "/?ticker=DEMO")
	cookie := sessionCookie(t, first)

	second := get(t, h, "/?statement=income_statement&timeframe=5d", cookie)
	body := second.Body.String()

	if !strings.Contains(body, "Demo Industries Ltd") {
		t.Error("expected the session ticker to be rendered again")
	}
	if !strings.Contains(body, "Total Revenue") {
		t.Error("expected the income statement to be selected")
	}
	if !strings.Contains(body, `class="button active" href="/?timeframe=5d"`) {
		t.Error("expected the 5d timeframe to be active")
	}
}

func TestDashboardHandler_NewTickerResetsSelections(t *testing.T) {
	h := newTestDashboard(t, memory.Sample(), nil)

	cookie := sessionCookie(t, get(t, h, "/?ticker=DEMO"))
	get(t, h, "/?statement=cash_flow&timeframe=1y", cookie)
	body := get(t, h, "/?ticker=DEMO", cookie).Body.String()

	if !strings.Contains(body, `class="button active" href="/?statement=balance_sheet"`) {
		t.Error("expected balance sheet after resubmitting")
	}
	if !strings.Contains(body, `class="button active" href="/?timeframe=1mo"`) {
		t.Error("expected 1mo after resubmitting")
	}
}

func TestDashboardHandler_RefreshOnSubmit(t *testing.T) {
	h := newTestDashboard(t, memory.Sample(), nil)
	var refreshed []string
	h.SetRefreshFn(func(symbol string) { refreshed = append(refreshed, symbol) })

	cookie := sessionCookie(t, get(t, h, "/?ticker=demo"))
	get(t, h, "/?statement=cash_flow", cookie)
	get(t, h, "/?ticker=", cookie)
	get(t, h, "/?ticker=DEMO", cookie)

	if len(refreshed) != 2 || refreshed[0] != "DEMO" || refreshed[1] != "DEMO" {
		t.Errorf("expected a refresh per non-empty submit, got %v", refreshed)
	}
}

func TestDashboardHandler_InvalidSelectionIgnored(t *testing.T) {
	h := newTestDashboard(t, memory.Sample(), nil)

	cookie := sessionCookie(t, get(t, h, "/?ticker=DEMO"))
	body := get(t, h, "/?timeframe=7y", cookie).Body.String()

	if !strings.Contains(body, `class="button active" href="/?timeframe=1mo"`) {
		t.Error("expected the timeframe to stay at 1mo")
	}
}

func TestDashboardHandler_ResolutionMessages(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/?ticker=", dashboard.MsgEnterTicker},
		{"/?ticker=%20%20", dashboard.MsgEnterTicker},
		{"/?ticker=NOPE", dashboard.MsgBadTicker},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			body := get(t, newTestDashboard(t, memory.Sample(), nil), tt.target).Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("expected message %q", tt.want)
			}
			if strings.Contains(body, "Key Metrics") {
				t.Error("expected no report for an unresolved ticker")
			}
		})
	}
}

func TestDashboardHandler_UnhandledErrorIsLogged(t *testing.T) {
	p := memory.Sample()
	p.FailOn("BalanceSheet", errors.New("upstream exploded"))
	sink := &memSink{}

	body := get(t, newTestDashboard(t, p, sink), "/?ticker=DEMO").Body.String()

	if !strings.Contains(body, dashboard.MsgUnhandled) {
		t.Error("expected generic error message")
	}
	if strings.Contains(body, "upstream exploded") {
		t.Error("expected the cause to stay hidden")
	}
	if len(sink.entries) != 1 || !strings.Contains(sink.entries[0].Error, "upstream exploded") {
		t.Errorf("expected one logged error, got %+v", sink.entries)
	}
}

func TestDashboardHandler_XSSEscaping(t *testing.T) {
	body := get(t, newTestDashboard(t, memory.Sample(), nil), "/?ticker=%3Cscript%3E").Body.String()

	if strings.Contains(body, "<SCRIPT>") {
		t.Error("expected the ticker to be escaped")
	}
	if !strings.Contains(body, "&lt;SCRIPT&gt;") {
		t.Error("expected escaped ticker in the input value")
	}
}

func TestDashboardHandler_UnknownPath(t *testing.T) {
	w := get(t, newTestDashboard(t, memory.Sample(), nil), "/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func newReportMux(t *testing.T, p *memory.Provider) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /api/report/{symbol}", NewReportHandler(common.NewSilentLogger(), newTestOrchestrator(t, p, nil)))
	return mux
}

func TestReportHandler_ReturnsJSON(t *testing.T) {
	w := get(t, newReportMux(t, memory.Sample()), "/api/report/demo?statement=cash_flow&timeframe=5d")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Symbol string `json:"symbol"`
		Title  string `json:"title"`
		State  struct {
			Statement string `json:"statement"`
			Timeframe string `json:"timeframe"`
		} `json:"state"`
		News []json.RawMessage `json:"news"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body.Symbol != "DEMO" || body.Title != "Demo Industries Ltd" {
		t.Errorf("unexpected report header: %+v", body)
	}
	if body.State.Statement != "cash_flow" || body.State.Timeframe != "5d" {
		t.Errorf("unexpected state: %+v", body.State)
	}
	if len(body.News) != 2 {
		t.Errorf("expected 2 news items, got %d", len(body.News))
	}
}

func TestReportHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		fail   string
		status int
	}{
		{"unknown ticker", "/api/report/NOPE", "", http.StatusNotFound},
		{"bad statement", "/api/report/DEMO?statement=ledger", "", http.StatusBadRequest},
		{"bad timeframe", "/api/report/DEMO?timeframe=2w", "", http.StatusBadRequest},
		{"provider failure", "/api/report/DEMO", "Info", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := memory.Sample()
			if tt.fail != "" {
				p.FailOn(tt.fail, errors.New("boom"))
			}
			w := get(t, newReportMux(t, p), tt.target)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if strings.Contains(w.Body.String(), "boom") {
				t.Error("expected the cause to stay hidden")
			}
		})
	}
}

func TestErrorLogHandler_ListsNewestFirst(t *testing.T) {
	sink := &memSink{}
	sink.Append(context.Background(), models.ErrorLogEntry{ID: "1", Error: "first"})
	sink.Append(context.Background(), models.ErrorLogEntry{ID: "2", Error: "second"})
	sink.Append(context.Background(), models.ErrorLogEntry{ID: "3", Error: "third"})

	w := get(t, NewErrorLogHandler(common.NewSilentLogger(), sink), "/api/errors?limit=2")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Entries []models.ErrorLogEntry `json:"entries"`
		Count   int                    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body.Count != 2 || body.Entries[0].Error != "third" || body.Entries[1].Error != "second" {
		t.Errorf("unexpected entries: %+v", body)
	}
}

func TestErrorLogHandler_NilSinkAndBadLimit(t *testing.T) {
	h := NewErrorLogHandler(common.NewSilentLogger(), nil)

	w := get(t, h, "/api/errors")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("expected empty entries, got %d %s", w.Code, w.Body.String())
	}

	for _, limit := range []string{"0", "-3", "ten"} {
		if w := get(t, h, "/api/errors?limit="+limit); w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected status 400, got %d", limit, w.Code)
		}
	}
}
