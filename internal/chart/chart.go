// Package chart converts a closing price history into plot data.
package chart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/stockdash/internal/models"
)

// AxisPadding is added below the minimum and above the maximum close.
const AxisPadding = 10.0

// ErrEmptySeries is returned when there are no points to plot.
var ErrEmptySeries = errors.New("chart: empty price series")

// PricePoint is one daily close. Date is the exchange-local calendar date.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// BuildPriceSeries pairs timestamps with closes in provider order.
// Days without a close are dropped.
func BuildPriceSeries(raw models.RawSeries) []PricePoint {
	zone := time.FixedZone("exchange", raw.GMTOffset)
	n := min(len(raw.Timestamps), len(raw.Closes))

	out := make([]PricePoint, 0, n)
	for i := 0; i < n; i++ {
		c := raw.Closes[i]
		if c == nil {
			continue
		}
		local := time.Unix(raw.Timestamps[i], 0).In(zone)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, PricePoint{Date: date, Close: *c})
	}
	return out
}

// YAxisRange returns the padded value range of the series.
func YAxisRange(series []PricePoint) (float64, float64, error) {
	if len(series) == 0 {
		return 0, 0, ErrEmptySeries
	}
	lo, hi := series[0].Close, series[0].Close
	for _, p := range series[1:] {
		lo = min(lo, p.Close)
		hi = max(hi, p.Close)
	}
	return lo - AxisPadding, hi + AxisPadding, nil
}

// Plot is a line chart scaled into a width x height viewport.
type Plot struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Points    string  `json:"points"`
	YMin      float64 `json:"y_min"`
	YMax      float64 `json:"y_max"`
	FirstDate string  `json:"first_date"`
	LastDate  string  `json:"last_date"`
	Count     int     `json:"count"`
}

// YMinLabel and YMaxLabel render the axis bounds.
func (p Plot) YMinLabel() string { return fmt.Sprintf("%.2f", p.YMin) }

func (p Plot) YMaxLabel() string { return fmt.Sprintf("%.2f", p.YMax) }

// Render scales series into an SVG polyline "x,y x,y ..." attribute.
// The y axis is inverted so larger closes sit higher.
func Render(series []PricePoint, width, height int) (Plot, error) {
	lo, hi, err := YAxisRange(series)
	if err != nil {
		return Plot{}, err
	}

	w, h := float64(width), float64(height)
	span := hi - lo

	var b strings.Builder
	for i, p := range series {
		x := 0.0
		if len(series) > 1 {
			x = w * float64(i) / float64(len(series)-1)
		}
		y := h - (p.Close-lo)/span*h
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y)
	}

	return Plot{
		Width:     width,
		Height:    height,
		Points:    b.String(),
		YMin:      lo,
		YMax:      hi,
		FirstDate: series[0].Date.Format(time.DateOnly),
		LastDate:  series[len(series)-1].Date.Format(time.DateOnly),
		Count:     len(series),
	}, nil
}
