// Package memory is an in-memory market data provider for tests and offline demos.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/models"
)

// Ticker is the canned data for one symbol.
type Ticker struct {
	Name            string
	Info            models.RawInfo
	Quote           models.FastQuote
	BalanceSheet    models.RawTable
	IncomeStatement models.RawTable
	CashFlow        models.RawTable
	History         map[models.Timeframe]models.RawSeries
	News            []models.RawNewsItem
}

// Provider serves canned tickers. Err, when set for a method name, is returned by that method.
type Provider struct {
	mu      sync.Mutex
	tickers map[string]Ticker
	errs    map[string]error
	calls   []string
}

// New creates a Provider.
func New(tickers map[string]Ticker) *Provider {
	return &Provider{tickers: tickers, errs: make(map[string]error)}
}

// FailOn makes method return err.
func (p *Provider) FailOn(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[method] = err
}

// Calls returns the methods invoked so far, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Provider) record(method, symbol string) (Ticker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, method)
	if err := p.errs[method]; err != nil {
		return Ticker{}, err
	}
	t, ok := p.tickers[symbol]
	if !ok {
		return Ticker{}, fmt.Errorf("memory: unknown ticker %q", symbol)
	}
	return t, nil
}

func (p *Provider) Resolve(_ context.Context, symbol string) (models.TickerHandle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	t, err := p.record("Resolve", symbol)
	if err != nil {
		return models.TickerHandle{}, err
	}
	return models.TickerHandle{Symbol: symbol, Name: t.Name}, nil
}

func (p *Provider) BalanceSheet(_ context.Context, h models.TickerHandle) (models.RawTable, error) {
	t, err := p.record("BalanceSheet", h.Symbol)
	return t.BalanceSheet, err
}

func (p *Provider) IncomeStatement(_ context.Context, h models.TickerHandle) (models.RawTable, error) {
	t, err := p.record("IncomeStatement", h.Symbol)
	return t.IncomeStatement, err
}

func (p *Provider) CashFlow(_ context.Context, h models.TickerHandle) (models.RawTable, error) {
	t, err := p.record("CashFlow", h.Symbol)
	return t.CashFlow, err
}

func (p *Provider) History(_ context.Context, h models.TickerHandle, tf models.Timeframe) (models.RawSeries, error) {
	t, err := p.record("History", h.Symbol)
	return t.History[tf], err
}

func (p *Provider) FastQuote(_ context.Context, h models.TickerHandle) (models.FastQuote, error) {
	t, err := p.record("FastQuote", h.Symbol)
	return t.Quote, err
}

func (p *Provider) Info(_ context.Context, h models.TickerHandle) (models.RawInfo, error) {
	t, err := p.record("Info", h.Symbol)
	return t.Info, err
}

// SearchNews matches query against ticker names.
func (p *Provider) SearchNews(_ context.Context, query string, limit int) ([]models.RawNewsItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "SearchNews")
	if err := p.errs["SearchNews"]; err != nil {
		return nil, err
	}
	for _, t := range p.tickers {
		if t.Name == query {
			if len(t.News) > limit {
				return t.News[:limit], nil
			}
			return t.News, nil
		}
	}
	return nil, nil
}

func f(v float64) *float64 { return &v }

// Sample returns a single-ticker provider for "DEMO".
func Sample() *Provider {
	closes := []*float64{f(101.2), f(102.8), nil, f(99.4), f(104.1)}
	ts := []int64{1709510400, 1709596800, 1709683200, 1709769600, 1709856000}
	series := models.RawSeries{Timestamps: ts, Closes: closes, GMTOffset: 19800}

	history := make(map[models.Timeframe]models.RawSeries, len(models.Timeframes))
	for _, tf := range models.Timeframes {
		history[tf] = series
	}

	periods := []string{"2024-03-31", "2023-03-31"}
	table := func(rows ...models.RawRow) models.RawTable { return models.RawTable{Periods: periods, Rows: rows} }
	row := func(label string, a, b float64) models.RawRow {
		return models.RawRow{Label: label, Values: []format.Value{format.Float(a), format.Float(b)}}
	}

	return New(map[string]Ticker{
		"DEMO": {
			Name: "Demo Industries Ltd",
			Info: models.RawInfo{
				LongName:          "Demo Industries Ltd",
				ShortName:         "Demo",
				DividendYield:     f(0.0125),
				TrailingPE:        f(24.317),
				TrailingEPS:       f(4.28),
				BookValue:         f(61.5),
				PriceToBook:       f(1.69),
				CurrentRatio:      f(1.42),
				RevenueGrowth:     f(0.087),
				EarningsGrowth:    nil,
				EBITDAMargins:     f(0.2134),
				MarketCap:         f(520000000000),
				SharesOutstanding: f(5000000000),
			},
			Quote: models.FastQuote{
				Exchange:  "NSI",
				Currency:  "INR",
				MarketCap: format.Float(520000000000),
				Shares:    format.Float(5000000000),
				LastPrice: format.Float(104.1),
			},
			BalanceSheet: table(
				row("Total Assets", 900000000000, 810000000000),
				row("Current Liabilities", 210000000000, 190000000000),
				row("Ordinary Shares Number", 5000000000, 5000000000),
				models.RawRow{Label: "Treasury Shares Number", Values: []format.Value{format.Missing(), format.Float(1000)}},
			),
			IncomeStatement: table(
				row("Total Revenue", 410000000000, 377000000000),
				row("Net Income", 21400000000, 19800000000),
			),
			CashFlow: table(
				row("Operating Cash Flow", 48000000000, 41000000000),
				row("Free Cash Flow", 22000000000, -3000000000),
			),
			History: history,
			News: []models.RawNewsItem{
				{Title: "Demo Industries posts record quarter", Publisher: "Demo Wire", Link: "https://example.com/demo/1", ProviderPublishTime: 1709856000},
				{Title: "Analysts upgrade Demo Industries", Publisher: "Market Daily", Link: "https://example.com/demo/2", ProviderPublishTime: 1709769600},
			},
		},
	})
}
