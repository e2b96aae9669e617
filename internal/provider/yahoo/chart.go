package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/models"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string   `json:"currency"`
		Symbol             string   `json:"symbol"`
		ExchangeName       string   `json:"exchangeName"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		GMTOffset          int      `json:"gmtoffset"`
		LongName           string   `json:"longName"`
		ShortName          string   `json:"shortName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("yahoo: %s: %s", e.Code, e.Description)
}

// errNoChartData is returned when the chart endpoint has no records for a symbol and range.
var errNoChartData = errors.New("yahoo: no chart data")

// noData reports whether err is the chart endpoint saying it has nothing for the request.
func noData(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Code == "Not Found"
	}
	return errors.Is(err, errNoChartData)
}

func (c *Client) chart(ctx context.Context, symbol, rng string) (*chartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.cfg.QueryURL, url.PathEscape(symbol), url.QueryEscape(rng))

	var resp chartResponse
	if err := c.get(ctx, request{url: u}, &resp); err != nil {
		// A 404 from the chart endpoint still carries the error object.
		var he *HTTPError
		if !errors.As(err, &he) || json.Unmarshal(he.Body, &resp) != nil || resp.Chart.Error == nil {
			return nil, err
		}
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart %s: %w", symbol, errNoChartData)
	}
	return &resp.Chart.Result[0], nil
}

// History returns daily closes for the timeframe. A range the provider has no
// records for is an empty series, not an error.
func (c *Client) History(ctx context.Context, h models.TickerHandle, tf models.Timeframe) (models.RawSeries, error) {
	res, err := c.chart(ctx, h.Symbol, string(tf))
	if noData(err) {
		c.logger.Debug().Str("symbol", h.Symbol).Str("timeframe", string(tf)).Msg("no chart data for range")
		return models.RawSeries{}, nil
	}
	if err != nil {
		return models.RawSeries{}, err
	}

	series := models.RawSeries{
		Timestamps: res.Timestamp,
		GMTOffset:  res.Meta.GMTOffset,
	}
	if len(res.Indicators.Quote) > 0 {
		series.Closes = res.Indicators.Quote[0].Close
	}
	return series, nil
}

// FastQuote returns exchange, currency and last price from the chart meta.
// Share count and market cap come from the info payload; see models.FastQuote.WithInfo.
func (c *Client) FastQuote(ctx context.Context, h models.TickerHandle) (models.FastQuote, error) {
	res, err := c.chart(ctx, h.Symbol, "1d")
	if noData(err) {
		return models.FastQuote{}, fmt.Errorf("fast quote %s: %w: %v", h.Symbol, ErrUnknownTicker, err)
	}
	if err != nil {
		return models.FastQuote{}, err
	}

	return models.FastQuote{
		Exchange:  res.Meta.ExchangeName,
		Currency:  res.Meta.Currency,
		LastPrice: format.FloatPtr(res.Meta.RegularMarketPrice),
	}, nil
}
