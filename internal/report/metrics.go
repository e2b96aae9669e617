package report

import (
	"strings"

	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/models"
)

// KeyMetrics is the summary row above the ratios. Exchange identifies the record.
type KeyMetrics struct {
	Exchange  string `json:"exchange"`
	Currency  string `json:"currency"`
	MarketCap string `json:"market_cap"`
	Shares    string `json:"shares"`
	LastPrice string `json:"last_price"`
}

// BuildKeyMetrics renders a fast quote. A field that is absent or fails to format
// becomes NotAvailable without affecting the others.
func BuildKeyMetrics(q models.FastQuote, f *format.Formatter) KeyMetrics {
	return KeyMetrics{
		Exchange:  textOrNA(q.Exchange),
		Currency:  textOrNA(q.Currency),
		MarketCap: soft(f.Number(q.MarketCap)),
		Shares:    soft(f.Number(q.Shares)),
		LastPrice: soft(f.Decimal(q.LastPrice, 2)),
	}
}

func textOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return format.NotAvailable
	}
	return s
}

func soft(s string, err error) string {
	if err != nil {
		return format.NotAvailable
	}
	return s
}
