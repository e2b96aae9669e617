package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/stockdash/internal/chart"
	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/interfaces"
	"github.com/bobmcallan/stockdash/internal/models"
	"github.com/bobmcallan/stockdash/internal/news"
	"github.com/bobmcallan/stockdash/internal/report"
)

// Default chart viewport.
const (
	DefaultChartWidth  = 800
	DefaultChartHeight = 320
)

// View is everything one render shows.
type View struct {
	State        State              `json:"state"`
	Symbol       string             `json:"symbol"`
	Title        string             `json:"title"`
	KeyMetrics   report.KeyMetrics  `json:"key_metrics"`
	Ratios       report.Ratios      `json:"ratios"`
	Table        report.Table       `json:"table"`
	Series       []chart.PricePoint `json:"series"`
	Plot         *chart.Plot        `json:"plot,omitempty"`
	ChartMessage string             `json:"chart_message,omitempty"`
	News         []news.Item        `json:"news"`
	NewsMessage  string             `json:"news_message,omitempty"`
	RenderedAt   time.Time          `json:"rendered_at"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithChartSize sets the plot viewport.
func WithChartSize(width, height int) Option {
	return func(o *Orchestrator) {
		o.chartWidth, o.chartHeight = width, height
	}
}

// WithClock overrides time.Now for error log timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator turns a State into a View using the provider.
type Orchestrator struct {
	provider    interfaces.MarketDataProvider
	builder     *report.Builder
	sink        interfaces.ErrorLogSink
	logger      *common.Logger
	timeout     time.Duration
	chartWidth  int
	chartHeight int
	now         func() time.Time
}

// New creates an Orchestrator. sink may be nil, in which case failures are only logged.
func New(provider interfaces.MarketDataProvider, builder *report.Builder, sink interfaces.ErrorLogSink, logger *common.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:    provider,
		builder:     builder,
		sink:        sink,
		logger:      logger,
		timeout:     15 * time.Second,
		chartWidth:  DefaultChartWidth,
		chartHeight: DefaultChartHeight,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Render runs one render cycle. It returns *ResolutionError for an empty or unknown
// ticker and *UnhandledError for anything else.
func (o *Orchestrator) Render(ctx context.Context, state State) (*View, error) {
	state = state.Normalize()
	if state.Symbol == "" {
		return nil, &ResolutionError{Symbol: state.Symbol, Err: ErrEmptySymbol}
	}

	var h models.TickerHandle
	err := o.call(ctx, func(ctx context.Context) (err error) {
		h, err = o.provider.Resolve(ctx, state.Symbol)
		return err
	})
	if err != nil {
		o.logger.Warn().Err(err).Str("symbol", state.Symbol).Msg("ticker resolution failed")
		return nil, &ResolutionError{Symbol: state.Symbol, Err: err}
	}

	view, err := o.build(ctx, state, h)
	if err != nil {
		return nil, o.fail(ctx, state, err)
	}
	return view, nil
}

func (o *Orchestrator) build(ctx context.Context, state State, h models.TickerHandle) (*View, error) {
	view := &View{State: state, Symbol: h.Symbol, RenderedAt: o.now()}

	var info models.RawInfo
	if err := o.call(ctx, func(ctx context.Context) (err error) {
		info, err = o.provider.Info(ctx, h)
		return err
	}); err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	view.Title = info.DisplayName()
	if view.Title == "" {
		view.Title = h.Name
	}
	view.Ratios = report.BuildFinancialRatios(info)

	var quote models.FastQuote
	if err := o.call(ctx, func(ctx context.Context) (err error) {
		quote, err = o.provider.FastQuote(ctx, h)
		return err
	}); err != nil {
		return nil, fmt.Errorf("fast quote: %w", err)
	}
	view.KeyMetrics = report.BuildKeyMetrics(quote.WithInfo(info), o.builder.Formatter())

	var raw models.RawTable
	if err := o.call(ctx, func(ctx context.Context) (err error) {
		raw, err = o.statement(ctx, state.Statement, h)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", state.Statement, err)
	}
	table, err := o.builder.Statement(state.Statement, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", state.Statement, err)
	}
	view.Table = table

	var series models.RawSeries
	if err := o.call(ctx, func(ctx context.Context) (err error) {
		series, err = o.provider.History(ctx, h, state.Timeframe)
		return err
	}); err != nil {
		return nil, fmt.Errorf("history %s: %w", state.Timeframe, err)
	}
	view.Series = chart.BuildPriceSeries(series)
	plot, err := chart.Render(view.Series, o.chartWidth, o.chartHeight)
	switch {
	case errors.Is(err, chart.ErrEmptySeries):
		view.ChartMessage = MsgNoPriceData
	case err != nil:
		return nil, fmt.Errorf("chart: %w", err)
	default:
		view.Plot = &plot
	}

	var items []models.RawNewsItem
	if err := o.call(ctx, func(ctx context.Context) (err error) {
		items, err = o.provider.SearchNews(ctx, view.Title, news.MaxItems)
		return err
	}); err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}
	view.News = news.BuildNewsList(items)
	if len(view.News) == 0 {
		view.NewsMessage = MsgNoNews
	}

	return view, nil
}

func (o *Orchestrator) statement(ctx context.Context, st models.Statement, h models.TickerHandle) (models.RawTable, error) {
	switch st {
	case models.IncomeStatement:
		return o.provider.IncomeStatement(ctx, h)
	case models.CashFlow:
		return o.provider.CashFlow(ctx, h)
	default:
		return o.provider.BalanceSheet(ctx, h)
	}
}

// call runs fn with its own timeout.
func (o *Orchestrator) call(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return fn(cctx)
}

// fail records err in the error log and wraps it for the caller.
func (o *Orchestrator) fail(ctx context.Context, state State, err error) error {
	now := o.now()
	o.logger.Error().Err(err).
		Str("symbol", state.Symbol).
		Str("statement", string(state.Statement)).
		Str("timeframe", string(state.Timeframe)).
		Msg("render failed")

	if o.sink != nil {
		entry := models.ErrorLogEntry{
			Timestamp:     now,
			TimestampText: now.Format("2006-01-02 15:04:05"),
			Error:         fmt.Sprintf("%s: %v", state.Symbol, err),
		}
		if serr := o.sink.Append(context.WithoutCancel(ctx), entry); serr != nil {
			o.logger.Error().Err(serr).Msg("failed to record error log entry")
		}
	}
	return &UnhandledError{Err: err}
}
