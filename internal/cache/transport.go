package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Transport is an http.RoundTripper that serves successful GET responses from a
// ResponseCache. Requests carrying Cache-Control no-cache or no-store bypass it.
type Transport struct {
	Cache *ResponseCache
	Base  http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(c *ResponseCache, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Cache: c, Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !cacheable(req) {
		return t.Base.RoundTrip(req)
	}

	key := MakeKey(req.Method, req.URL.String())
	if cached, ok := t.Cache.Get(key); ok {
		return toResponse(req, cached), nil
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	cached := &CachedResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		Body:       body,
	}
	t.Cache.Set(key, cached)

	return toResponse(req, cached), nil
}

func cacheable(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	cc := strings.ToLower(req.Header.Get("Cache-Control"))
	return !strings.Contains(cc, "no-cache") && !strings.Contains(cc, "no-store")
}

func toResponse(req *http.Request, c *CachedResponse) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.StatusCode, http.StatusText(c.StatusCode)),
		StatusCode:    c.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        c.Headers.Clone(),
		Body:          io.NopCloser(bytes.NewReader(c.Body)),
		ContentLength: int64(len(c.Body)),
		Request:       req,
	}
}
