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
	// DefaultOpenRouterBaseURL is the hosted OpenRouter endpoint.
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	openRouterTimeout = 60 * time.Second
	maxErrorBody      = 2048
)

// Free or cheap models keyed by what the task actually needs. Classification
// tolerates the free tier; strategy synthesis gets the strongest model.
var openRouterModels = map[TaskType]string{
	TaskGeneral:        "deepseek/deepseek-chat-v3.1:free",
	TaskClassification: "deepseek/deepseek-chat-v3.1:free",
	TaskAnalysis:       "moonshotai/kimi-k2-0905",
	TaskSynthesis:      "moonshotai/kimi-k2-0905",
	TaskStrategy:       "moonshotai/kimi-k2-0905",
	TaskResearch:       "microsoft/phi-4",
}

// OpenRouterClient is a chat-completions client against the OpenRouter API.
type OpenRouterClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// OpenRouterOption configures an OpenRouterClient.
type OpenRouterOption func(*OpenRouterClient)

// WithOpenRouterHTTPClient replaces the underlying HTTP client.
func WithOpenRouterHTTPClient(hc *http.Client) OpenRouterOption {
	return func(c *OpenRouterClient) { c.httpClient = hc }
}

// WithOpenRouterLogger attaches a logger.
func WithOpenRouterLogger(l *zap.Logger) OpenRouterOption {
	return func(c *OpenRouterClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewOpenRouterClient creates an OpenRouter chat client.
func NewOpenRouterClient(baseURL, apiKey string, opts ...OpenRouterOption) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, errkind.New(errkind.Auth, errkind.CodeAuthMissing, "openrouter api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}
	c := &OpenRouterClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: openRouterTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ModelFor returns the model routed for a task, falling back to the general
// model for unknown tasks.
func (c *OpenRouterClient) ModelFor(task TaskType) string {
	if m, ok := openRouterModels[task]; ok {
		return m
	}
	return openRouterModels[TaskGeneral]
}

// Complete implements Client.
func (c *OpenRouterClient) Complete(ctx context.Context, task TaskType, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	model := c.ModelFor(task)
	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "encode chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errkind.Wrap(err, errkind.Internal, errkind.CodeInternal, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://luna-ai.app")
	req.Header.Set("X-Title", "Luna Marketing Assistant")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeoutErr(err) {
			return "", errkind.Wrap(err, errkind.Timeout, errkind.CodeTimeout, "openrouter completion timed out")
		}
		return "", errkind.Wrap(err, errkind.Network, errkind.CodeConnectionFailed, "openrouter request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("openrouter round trip",
		zap.String("model", model),
		zap.String("task", string(task)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("openrouter returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", errkind.New(errkind.Auth, errkind.CodeAuthRejected, msg)
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", errkind.New(errkind.Network, errkind.CodeRateLimited, msg)
		case resp.StatusCode >= 500:
			return "", errkind.New(errkind.Network, errkind.CodeServiceUnavailable, msg)
		default:
			return "", errkind.New(errkind.Format, errkind.CodeBadUpstreamFormat, msg)
		}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errkind.Wrap(err, errkind.Format, errkind.CodeBadUpstreamFormat, "decode openrouter response")
	}
	if len(out.Choices) == 0 {
		return "", errkind.New(errkind.Format, errkind.CodeBadUpstreamFormat, "openrouter response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func isTimeoutErr(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
