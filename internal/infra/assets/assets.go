// Package assets fetches static icon files from the site.
package assets

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fanmade/nowplaying/internal/apperr"
)

// maxAssetSize bounds the body read for a single asset.
const maxAssetSize = 1 << 20

// Config represents static asset client configuration.
type Config struct {
	// StaticPath is the URL prefix icon files are appended to,
	// e.g. "https://fanmade.example/static/icons/".
	StaticPath string
	Timeout    time.Duration
}

// Client fetches static assets over HTTP.
type Client struct {
	staticPath string
	httpClient *http.Client
}

// New creates a new static asset client. A missing static path is a
// configuration error.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.StaticPath) == "" {
		return nil, errors.Mark(errors.New("static path has not been set"), apperr.ErrConfiguration)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		staticPath: cfg.StaticPath,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// URL returns the full URL of file.
func (c *Client) URL(file string) string {
	return c.staticPath + file
}

// Fetch retrieves the text content of file.
func (c *Client) Fetch(ctx context.Context, file string) (string, error) {
	reqURL := c.URL(file)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Fetch(err, "failed to fetch %s", reqURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Mark(errors.Newf("failed to fetch %s: %s", reqURL, resp.Status), apperr.ErrFetch)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return "", apperr.Fetch(err, "failed to read %s", reqURL)
	}
	return string(body), nil
}
