package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// getCrumb returns the session crumb required by the quote summary endpoint.
// The cookie endpoint is visited first so the jar holds the consent cookie.
func (c *Client) getCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" {
		return c.crumb, nil
	}

	if c.cfg.CookieURL != "" {
		// fc.yahoo.com answers 404 but still sets the cookie.
		if _, err := c.fetch(ctx, request{url: c.cfg.CookieURL, noCache: true}); err != nil {
			var he *HTTPError
			if !errors.As(err, &he) {
				return "", fmt.Errorf("yahoo: cookie: %w", err)
			}
		}
	}

	body, err := c.fetch(ctx, request{url: c.cfg.QueryURL + "/v1/test/getcrumb", noCache: true})
	if err != nil {
		return "", fmt.Errorf("yahoo: crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.Contains(crumb, "<") {
		return "", errors.New("yahoo: crumb: empty or invalid response")
	}

	c.crumb = crumb
	return crumb, nil
}

func (c *Client) resetCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}

func isUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden)
}
