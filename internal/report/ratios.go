package report

import (
	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/models"
)

// Ratio is one named, rendered ratio.
type Ratio struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Ratios keeps ratios in display order.
type Ratios []Ratio

// Get looks a ratio up by name.
func (r Ratios) Get(name string) (string, bool) {
	for _, x := range r {
		if x.Name == name {
			return x.Value, true
		}
	}
	return "", false
}

type ratioField struct {
	name    string
	label   string
	percent bool
	get     func(models.RawInfo) *float64
}

var ratioFields = []ratioField{
	{"Dividend Yield", "Dividend Yield (%)", true, func(i models.RawInfo) *float64 { return i.DividendYield }},
	{"Trailing P/E", "Trailing P/E", false, func(i models.RawInfo) *float64 { return i.TrailingPE }},
	{"Trailing EPS", "Trailing EPS", false, func(i models.RawInfo) *float64 { return i.TrailingEPS }},
	{"Book Value", "Book Value", false, func(i models.RawInfo) *float64 { return i.BookValue }},
	{"Price/Book", "Price/Book", false, func(i models.RawInfo) *float64 { return i.PriceToBook }},
	{"Current Ratio", "Current Ratio", false, func(i models.RawInfo) *float64 { return i.CurrentRatio }},
	{"Revenue Growth", "Revenue Growth (%)", true, func(i models.RawInfo) *float64 { return i.RevenueGrowth }},
	{"Earnings Growth", "Earnings Growth (%)", true, func(i models.RawInfo) *float64 { return i.EarningsGrowth }},
	{"EBITDA Margin", "EBITDA Margin (%)", true, func(i models.RawInfo) *float64 { return i.EBITDAMargins }},
}

// RatioNames lists ratio names in display order.
func RatioNames() []string {
	names := make([]string, len(ratioFields))
	for i, f := range ratioFields {
		names[i] = f.name
	}
	return names
}

// BuildFinancialRatios derives each ratio independently from the info payload.
func BuildFinancialRatios(info models.RawInfo) Ratios {
	out := make(Ratios, 0, len(ratioFields))
	for _, f := range ratioFields {
		raw := f.get(info)
		var v string
		if f.percent {
			v = format.FormatPercentRatio(raw)
		} else {
			v = format.FormatRatio(raw)
		}
		out = append(out, Ratio{Name: f.name, Label: f.label, Value: v})
	}
	return out
}
