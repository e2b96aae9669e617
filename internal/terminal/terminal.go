// Package terminal renders a dashboard view as text tables.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bobmcallan/stockdash/internal/chart"
	"github.com/bobmcallan/stockdash/internal/dashboard"
	"github.com/bobmcallan/stockdash/internal/report"
)

// Options controls rendering.
type Options struct {
	Color bool
	// SparkWidth is the maximum number of sparkline characters; 0 means 60.
	SparkWidth int
}

var (
	assetColors     = text.Colors{text.BgGreen, text.FgWhite}
	liabilityColors = text.Colors{text.BgRed, text.FgWhite}
)

var sparks = []rune("▁▂▃▄▅▆▇█")

// Render writes the view to w.
func Render(w io.Writer, v *dashboard.View, opts Options) error {
	title := v.Title
	if opts.Color {
		title = text.Bold.Sprint(title)
	}
	fmt.Fprintf(w, "%s (%s)\n\n", title, v.Symbol)

	km := newWriter(w)
	km.AppendHeader(table.Row{"EXCHANGE", "CURRENCY", "MARKET CAP", "SHARES", "LAST PRICE"})
	km.AppendRow(table.Row{v.KeyMetrics.Exchange, v.KeyMetrics.Currency, v.KeyMetrics.MarketCap, v.KeyMetrics.Shares, v.KeyMetrics.LastPrice})
	km.Render()
	fmt.Fprintln(w)

	rt := newWriter(w)
	hdr := make(table.Row, len(v.Ratios))
	row := make(table.Row, len(v.Ratios))
	for i, r := range v.Ratios {
		hdr[i] = strings.ToUpper(r.Label)
		row[i] = r.Value
	}
	rt.AppendHeader(hdr)
	rt.AppendRow(row)
	rt.Render()
	fmt.Fprintln(w)

	fmt.Fprintln(w, strings.ToUpper(v.Table.Statement.Title()))
	renderStatement(w, v.Table, opts)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "CLOSE (%s)\n", v.State.Timeframe)
	if v.Plot == nil {
		fmt.Fprintln(w, v.ChartMessage)
	} else {
		fmt.Fprintf(w, "%s  %s .. %s  [%s, %s]\n",
			Sparkline(v.Series, v.Plot.YMin, v.Plot.YMax, opts.SparkWidth),
			v.Plot.FirstDate, v.Plot.LastDate, v.Plot.YMinLabel(), v.Plot.YMaxLabel())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "NEWS")
	if len(v.News) == 0 {
		fmt.Fprintln(w, v.NewsMessage)
	}
	for _, n := range v.News {
		fmt.Fprintf(w, "%s\n%s\n%s\nPosted on : %s\n%s\n", n.Publisher, n.Title, n.Link, n.PostedAtText(), strings.Repeat("-", 40))
	}
	return nil
}

func newWriter(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	return tw
}

func renderStatement(w io.Writer, t report.Table, opts Options) {
	tw := newWriter(w)

	hdr := table.Row{"LINE ITEM"}
	for _, p := range t.Periods {
		hdr = append(hdr, p)
	}
	tw.AppendHeader(hdr)

	cfgs := make([]table.ColumnConfig, 0, len(t.Periods))
	for i := range t.Periods {
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)

	for _, r := range t.Rows {
		row := table.Row{r.Label}
		for _, c := range r.Cells {
			row = append(row, c)
		}
		if opts.Color {
			colors := categoryColors(r.Category)
			if colors != nil {
				for i := range row {
					row[i] = colors.Sprint(row[i])
				}
			}
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func categoryColors(c report.Category) text.Colors {
	switch c {
	case report.Asset:
		return assetColors
	case report.Liability:
		return liabilityColors
	}
	return nil
}

// Sparkline draws closes scaled into [lo, hi], resampled to at most width characters.
func Sparkline(series []chart.PricePoint, lo, hi float64, width int) string {
	if len(series) == 0 {
		return ""
	}
	if width <= 0 {
		width = 60
	}
	n := min(len(series), width)
	span := hi - lo

	var b strings.Builder
	for i := 0; i < n; i++ {
		idx := i
		if len(series) > width {
			idx = i * (len(series) - 1) / (width - 1)
		}
		level := 0
		if span > 0 {
			level = int((series[idx].Close - lo) / span * float64(len(sparks)-1))
		}
		level = max(0, min(level, len(sparks)-1))
		b.WriteRune(sparks[level])
	}
	return b.String()
}
