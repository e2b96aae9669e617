package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bobmcallan/stockdash/internal/models"
)

type searchResponse struct {
	News []models.RawNewsItem `json:"news"`
}

// SearchNews returns up to limit news items for a free-text query.
func (c *Client) SearchNews(ctx context.Context, query string, limit int) ([]models.RawNewsItem, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("newsCount", fmt.Sprint(limit))
	q.Set("quotesCount", "0")
	q.Set("enableFuzzyQuery", "false")

	var resp searchResponse
	if err := c.get(ctx, request{url: c.cfg.QueryURL + "/v1/finance/search?" + q.Encode()}, &resp); err != nil {
		return nil, err
	}
	if len(resp.News) > limit {
		resp.News = resp.News[:limit]
	}
	return resp.News, nil
}
