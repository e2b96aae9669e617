package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bobmcallan/stockdash/internal/models"
)

var summaryModules = []string{"price", "summaryDetail", "financialData", "defaultKeyStatistics"}

type rawNum struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				MarketCap rawNum `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				DividendYield rawNum `json:"dividendYield"`
				TrailingPE    rawNum `json:"trailingPE"`
				MarketCap     rawNum `json:"marketCap"`
			} `json:"summaryDetail"`
			FinancialData struct {
				CurrentRatio   rawNum `json:"currentRatio"`
				RevenueGrowth  rawNum `json:"revenueGrowth"`
				EarningsGrowth rawNum `json:"earningsGrowth"`
				EBITDAMargins  rawNum `json:"ebitdaMargins"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				TrailingEPS       rawNum `json:"trailingEps"`
				BookValue         rawNum `json:"bookValue"`
				PriceToBook       rawNum `json:"priceToBook"`
				SharesOutstanding rawNum `json:"sharesOutstanding"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// Info returns the quote summary fields used for ratios and key metrics.
func (c *Client) Info(ctx context.Context, h models.TickerHandle) (models.RawInfo, error) {
	crumb, err := c.getCrumb(ctx)
	if err != nil {
		return models.RawInfo{}, err
	}

	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s&crumb=%s",
		c.cfg.QueryURL, url.PathEscape(h.Symbol),
		url.QueryEscape(strings.Join(summaryModules, ",")), url.QueryEscape(crumb))

	var resp summaryResponse
	if err := c.get(ctx, request{url: u}, &resp); err != nil {
		if isUnauthorized(err) {
			c.resetCrumb()
		}
		return models.RawInfo{}, err
	}
	if resp.QuoteSummary.Error != nil {
		return models.RawInfo{}, resp.QuoteSummary.Error
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return models.RawInfo{}, fmt.Errorf("quote summary %s: %w", h.Symbol, ErrUnknownTicker)
	}

	r := resp.QuoteSummary.Result[0]
	info := models.RawInfo{
		LongName:          r.Price.LongName,
		ShortName:         r.Price.ShortName,
		DividendYield:     r.SummaryDetail.DividendYield.Raw,
		TrailingPE:        r.SummaryDetail.TrailingPE.Raw,
		TrailingEPS:       r.DefaultKeyStatistics.TrailingEPS.Raw,
		BookValue:         r.DefaultKeyStatistics.BookValue.Raw,
		PriceToBook:       r.DefaultKeyStatistics.PriceToBook.Raw,
		CurrentRatio:      r.FinancialData.CurrentRatio.Raw,
		RevenueGrowth:     r.FinancialData.RevenueGrowth.Raw,
		EarningsGrowth:    r.FinancialData.EarningsGrowth.Raw,
		EBITDAMargins:     r.FinancialData.EBITDAMargins.Raw,
		MarketCap:         r.Price.MarketCap.Raw,
		SharesOutstanding: r.DefaultKeyStatistics.SharesOutstanding.Raw,
	}
	if info.MarketCap == nil {
		info.MarketCap = r.SummaryDetail.MarketCap.Raw
	}
	return info, nil
}
