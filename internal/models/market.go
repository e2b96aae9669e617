// Package models holds the raw market data shapes exchanged with the provider.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/stockdash/internal/format"
)

// TickerHandle is a resolved ticker symbol.
type TickerHandle struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// RawTable is a provider statement table. Periods are newest first.
type RawTable struct {
	Periods []string `json:"periods"`
	Rows    []RawRow `json:"rows"`
}

// RawRow is one labelled line item. len(Values) == len(Periods).
type RawRow struct {
	Label  string         `json:"label"`
	Values []format.Value `json:"values"`
}

// RawInfo is the subset of the quote summary used for ratios.
// A nil pointer means the provider did not report the field.
type RawInfo struct {
	LongName          string   `json:"long_name"`
	ShortName         string   `json:"short_name"`
	DividendYield     *float64 `json:"dividend_yield"`
	TrailingPE        *float64 `json:"trailing_pe"`
	TrailingEPS       *float64 `json:"trailing_eps"`
	BookValue         *float64 `json:"book_value"`
	PriceToBook       *float64 `json:"price_to_book"`
	CurrentRatio      *float64 `json:"current_ratio"`
	RevenueGrowth     *float64 `json:"revenue_growth"`
	EarningsGrowth    *float64 `json:"earnings_growth"`
	EBITDAMargins     *float64 `json:"ebitda_margins"`
	MarketCap         *float64 `json:"market_cap"`
	SharesOutstanding *float64 `json:"shares_outstanding"`
}

// DisplayName prefers the long name.
func (i *RawInfo) DisplayName() string {
	if strings.TrimSpace(i.LongName) != "" {
		return i.LongName
	}
	return i.ShortName
}

// FastQuote is the lightweight quote record behind the key metrics row.
type FastQuote struct {
	Exchange  string       `json:"exchange"`
	Currency  string       `json:"currency"`
	MarketCap format.Value `json:"market_cap"`
	Shares    format.Value `json:"shares"`
	LastPrice format.Value `json:"last_price"`
}

// WithInfo fills share count and market cap the quote did not report from info.
// Market cap falls back to shares times last price.
func (q FastQuote) WithInfo(info RawInfo) FastQuote {
	if q.Shares.IsMissing() {
		q.Shares = format.FloatPtr(info.SharesOutstanding)
	}
	if q.MarketCap.IsMissing() {
		q.MarketCap = format.FloatPtr(info.MarketCap)
	}
	if q.MarketCap.IsMissing() {
		shares, okShares := q.Shares.Float64()
		price, okPrice := q.LastPrice.Float64()
		if okShares && okPrice {
			q.MarketCap = format.Float(shares * price)
		}
	}
	return q
}

// RawSeries is a daily closing price history as returned by the chart endpoint.
// Closes may contain nil entries for days without a close.
type RawSeries struct {
	Timestamps []int64    `json:"timestamps"`
	Closes     []*float64 `json:"closes"`
	GMTOffset  int        `json:"gmt_offset"`
}

// RawNewsItem is one provider news record.
type RawNewsItem struct {
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
}

// ErrorLogEntry is one persisted unhandled failure.
type ErrorLogEntry struct {
	ID            string    `json:"id" badgerhold:"key"`
	Timestamp     time.Time `json:"timestamp"`
	TimestampText string    `json:"timestamp_text"`
	Error         string    `json:"error"`
}

// Statement selects which financial statement is shown.
type Statement string

const (
	BalanceSheet    Statement = "balance_sheet"
	IncomeStatement Statement = "income_statement"
	CashFlow        Statement = "cash_flow"
)

// Statements lists the statements in button order.
var Statements = []Statement{BalanceSheet, IncomeStatement, CashFlow}

// Title is the button caption.
func (s Statement) Title() string {
	switch s {
	case BalanceSheet:
		return "Balance Sheet"
	case IncomeStatement:
		return "Income Statement"
	case CashFlow:
		return "Cash Flow"
	}
	return string(s)
}

// ParseStatement validates a statement token.
func ParseStatement(s string) (Statement, error) {
	for _, st := range Statements {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown statement %q", s)
}

// Timeframe is a provider range token.
type Timeframe string

// Timeframes lists the selectable ranges in button order.
var Timeframes = []Timeframe{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// DefaultTimeframe is selected when a ticker is submitted.
const DefaultTimeframe Timeframe = "1mo"

// ParseTimeframe validates a range token.
func ParseTimeframe(s string) (Timeframe, error) {
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}
