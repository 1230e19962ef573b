package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/retry"
)

// retryingClient retries transient completion failures. Non-retryable
// failures (auth, validation, bad output shape) surface immediately.
type retryingClient struct {
	inner  Client
	cfg    retry.Config
	logger *zap.Logger
}

// WithRetry wraps a client with bounded retry. A nil inner client is
// returned as-is so callers can chain over an unconfigured backend.
func WithRetry(inner Client, cfg retry.Config, logger *zap.Logger) Client {
	if inner == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := &retryingClient{inner: inner, cfg: cfg, logger: logger}
	if rc.cfg.OnRetry == nil {
		rc.cfg.OnRetry = func(attempt int, err error) {
			logger.Warn("llm completion retry",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		}
	}
	return rc
}

// Complete implements Client.
func (c *retryingClient) Complete(ctx context.Context, task TaskType, prompt string) (string, error) {
	return retry.Do(ctx, func() (string, error) {
		return c.inner.Complete(ctx, task, prompt)
	}, c.cfg)
}
