package llm

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
	defaultOllamaModel = "llama3.1"
	ollamaTimeout      = 120 * time.Second
)

// OllamaClient talks to a local Ollama instance. It runs a single configured
// model for every task; task routing is a hosted-backend concern.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithOllamaHTTPClient replaces the underlying HTTP client.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(c *OllamaClient) { c.httpClient = hc }
}

// WithOllamaLogger attaches a logger.
func WithOllamaLogger(l *zap.Logger) OllamaOption {
	return func(c *OllamaClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewOllamaClient creates an Ollama client.
func NewOllamaClient(baseURL, model string, opts ...OllamaOption) (*OllamaClient, error) {
	if baseURL == "" {
		return nil, errkind.New(errkind.Validation, errkind.CodeMissingRequired, "ollama base url is required")
	}
	if model == "" {
		model = defaultOllamaModel
	}
	c := &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: ollamaTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete implements Client.
func (c *OllamaClient) Complete(ctx context.Context, task TaskType, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "encode generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "build generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeoutErr(err) {
			return "", errkind.Wrap(err, errkind.Timeout, errkind.CodeTimeout, "ollama generation timed out")
		}
		return "", errkind.Wrap(err, errkind.Network, errkind.CodeConnectionFailed, "ollama request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("ollama round trip",
		zap.String("model", c.model),
		zap.String("task", string(task)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= 500 {
			return "", errkind.New(errkind.Network, errkind.CodeServiceUnavailable, msg)
		}
		return "", errkind.New(errkind.Format, errkind.CodeBadUpstreamFormat, msg)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errkind.Wrap(err, errkind.Format, errkind.CodeBadUpstreamFormat, "decode ollama response")
	}
	return out.Response, nil
}
