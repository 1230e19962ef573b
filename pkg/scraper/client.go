// Package scraper is the HTTP client for the social scraping service that
// feeds the competitor and trend analysis sources.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/errkind"
)

const (
	defaultTimeout = 20 * time.Second
	maxErrorBody   = 2048
)

// Client talks to the scraping service. Both snapshot endpoints return
// loosely-shaped JSON objects; the sources that consume them pass the maps
// through unmodified.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a scraper client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errkind.New(errkind.Validation, errkind.CodeMissingRequired, "scraper base url is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompetitorSnapshot fetches the current competitor landscape for a niche.
func (c *Client) CompetitorSnapshot(ctx context.Context, niche, platform string) (map[string]any, error) {
	return c.snapshot(ctx, "/competitors", niche, platform)
}

// TrendSnapshot fetches current content trends for a niche.
func (c *Client) TrendSnapshot(ctx context.Context, niche, platform string) (map[string]any, error) {
	return c.snapshot(ctx, "/trends", niche, platform)
}

func (c *Client) snapshot(ctx context.Context, path, niche, platform string) (map[string]any, error) {
	if niche == "" {
		return nil, errkind.New(errkind.Validation, errkind.CodeMissingRequired, "niche is required")
	}

	q := url.Values{}
	q.Set("niche", niche)
	if platform != "" {
		q.Set("platform", platform)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "build snapshot request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, errkind.Wrap(err, errkind.Timeout, errkind.CodeTimeout, "scraper request timed out")
		}
		return nil, errkind.Wrap(err, errkind.Network, errkind.CodeConnectionFailed, "scraper request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("scraper returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(snippet)))
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, errkind.New(errkind.Auth, errkind.CodeAuthRejected, msg)
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errkind.New(errkind.Network, errkind.CodeRateLimited, msg)
		case resp.StatusCode >= 500:
			return nil, errkind.New(errkind.Network, errkind.CodeServiceUnavailable, msg)
		default:
			return nil, errkind.New(errkind.Format, errkind.CodeBadUpstreamFormat, msg)
		}
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errkind.Wrap(err, errkind.Format, errkind.CodeBadUpstreamFormat, "decode scraper response")
	}
	return out, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
