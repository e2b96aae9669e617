// Package yahoo implements the market data provider against Yahoo Finance.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/bobmcallan/stockdash/internal/common"
	"github.com/bobmcallan/stockdash/internal/config"
	"github.com/bobmcallan/stockdash/internal/models"
)

// ErrUnknownTicker is returned when the provider has no price record or name for a symbol.
var ErrUnknownTicker = errors.New("yahoo: unknown ticker")

// ErrEmptySymbol is returned before any request when the symbol is blank.
var ErrEmptySymbol = errors.New("yahoo: empty symbol")

// HTTPError is a non-200 upstream response. Body holds the response body, which
// for the chart endpoint still carries a JSON error object.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("yahoo: %s returned %d", e.URL, e.StatusCode)
}

// CacheFragment is the part of every per-symbol request URL that identifies symbol.
// Passing it to cache.ResponseCache.InvalidatePrefix drops that symbol's responses.
func CacheFragment(symbol string) string {
	return "/" + url.PathEscape(symbol) + "?"
}

// NameResolver looks up the display name of a symbol.
type NameResolver func(ctx context.Context, symbol string) (string, error)

// YFGoResolver resolves names through the yf-go quote summary price module.
func YFGoResolver(c *yfgo.Client) NameResolver {
	return func(ctx context.Context, symbol string) (string, error) {
		res, err := c.QuoteSummaryTyped(ctx, symbol, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
		if err != nil {
			return "", fmt.Errorf("quote summary %s: %w", symbol, err)
		}
		if res.Price == nil {
			return "", ErrUnknownTicker
		}
		if res.Price.LongName != "" {
			return res.Price.LongName, nil
		}
		return res.Price.ShortName, nil
	}
}

// Option configures a Client.
type Option func(*Client)

// WithResolver replaces the yf-go name resolver.
func WithResolver(r NameResolver) Option {
	return func(c *Client) { c.resolve = r }
}

// WithNow overrides the clock used for statement period bounds.
func WithNow(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client talks to the Yahoo Finance JSON endpoints.
type Client struct {
	http    *http.Client
	cfg     config.ProviderConfig
	resolve NameResolver
	logger  *common.Logger
	now     func() time.Time

	mu    sync.Mutex
	crumb string
}

// NewClient creates a Client. transport is usually the response cache transport.
func NewClient(cfg config.ProviderConfig, transport http.RoundTripper, logger *common.Logger, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   cfg.TimeoutDuration(),
		},
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolve == nil {
		c.resolve = YFGoResolver(yfgo.NewClient())
	}
	return c
}

// Resolve validates a symbol and returns its handle.
func (c *Client) Resolve(ctx context.Context, symbol string) (models.TickerHandle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.TickerHandle{}, ErrEmptySymbol
	}

	name, err := c.resolve(ctx, symbol)
	if err != nil {
		return models.TickerHandle{}, fmt.Errorf("resolve %s: %w", symbol, err)
	}
	if strings.TrimSpace(name) == "" {
		return models.TickerHandle{}, fmt.Errorf("resolve %s: %w", symbol, ErrUnknownTicker)
	}

	c.logger.Debug().Str("symbol", symbol).Str("name", name).Msg("ticker resolved")
	return models.TickerHandle{Symbol: symbol, Name: name}, nil
}

type request struct {
	url     string
	noCache bool
}

// get performs a GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, r request, out any) error {
	body, err := c.fetch(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo: decoding %s: %w", r.url, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, r request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo: building request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if r.noCache {
		req.Header.Set("Cache-Control", "no-cache")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo: GET %s: %w", r.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo: reading %s: %w", r.url, err)
	}

	c.logger.Debug().
		Str("url", r.url).
		Int("status", resp.StatusCode).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("provider request")

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{URL: r.url, StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
