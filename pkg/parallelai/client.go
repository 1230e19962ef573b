// Package parallelai is a thin HTTP client for the Parallel AI deep-research
// API, the upstream behind the premium market-research source.
package parallelai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/errkind"
)

const (
	// DefaultBaseURL is the production endpoint.
	DefaultBaseURL = "https://api.parallel.ai/v1"

	defaultTimeout = 45 * time.Second

	// maxErrorBody bounds how much of an upstream error response is read
	// for the error message.
	maxErrorBody = 2048
)

// Client calls the Parallel AI research endpoint.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a Parallel AI client. The API key must be non-empty;
// availability gating happens upstream at the probe.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errkind.New(errkind.Auth, errkind.CodeAuthMissing, "parallel ai api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type researchRequest struct {
	Query string `json:"query"`
	Depth string `json:"depth"`
}

type researchResponse struct {
	Result string `json:"result"`
}

// Research submits a query at the requested depth and returns the research
// text. Depth defaults to "comprehensive".
func (c *Client) Research(ctx context.Context, query, depth string) (string, error) {
	if query == "" {
		return "", errkind.New(errkind.Validation, errkind.CodeMissingRequired, "research query is required")
	}
	if depth == "" {
		depth = "comprehensive"
	}

	body, err := json.Marshal(researchRequest{Query: query, Depth: depth})
	if err != nil {
		return "", errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "encode research request")
	}

	url := c.baseURL + "/research"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "build research request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", errkind.Wrap(err, errkind.Timeout, errkind.CodeTimeout, "parallel ai research timed out")
		}
		return "", errkind.Wrap(err, errkind.Network, errkind.CodeConnectionFailed, "parallel ai research request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("parallel ai research round trip",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp)
	}

	var out researchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errkind.Wrap(err, errkind.Format, errkind.CodeBadUpstreamFormat, "decode parallel ai response")
	}
	if out.Result == "" {
		return "", errkind.New(errkind.Format, errkind.CodeBadUpstreamFormat, "parallel ai response missing result field")
	}
	return out.Result, nil
}

func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("parallel ai returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errkind.New(errkind.Auth, errkind.CodeAuthRejected, msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return errkind.New(errkind.Network, errkind.CodeRateLimited, msg)
	case resp.StatusCode >= 500:
		return errkind.New(errkind.Network, errkind.CodeServiceUnavailable, msg)
	default:
		return errkind.New(errkind.Format, errkind.CodeBadUpstreamFormat, msg)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
