// Package retry provides bounded retry with pluggable backoff for Luna's
// outbound HTTP clients. The research aggregator never retries: its contract
// is one bounded attempt per source per round, so retry lives strictly below
// the source boundary.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/luna-ai/luna/pkg/errkind"
)

// Strategy decides the delay before the next attempt.
type Strategy interface {
	NextDelay(attempt int) time.Duration
}

// Config controls a retry loop.
type Config struct {
	MaxAttempts int
	Strategy    Strategy
	Jitter      float64
	OnRetry     func(attempt int, err error)
}

// ExponentialBackoff grows the delay geometrically up to a cap.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// NextDelay returns the delay for the given zero-based attempt.
func (e *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(e.InitialDelay) * math.Pow(e.Multiplier, float64(attempt))
	if delay > float64(e.MaxDelay) {
		return e.MaxDelay
	}
	return time.Duration(delay)
}

// LinearBackoff waits a constant delay between attempts.
type LinearBackoff struct {
	Delay time.Duration
}

// NextDelay returns the constant delay.
func (l *LinearBackoff) NextDelay(int) time.Duration {
	return l.Delay
}

// Do runs operation until it succeeds, fails with a non-retryable error, the
// attempt budget is exhausted, or the context ends.
func Do[T any](ctx context.Context, operation func() (T, error), cfg Config) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := operation()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errkind.IsRetryable(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.Strategy.NextDelay(attempt)
		if cfg.Jitter > 0 {
			delay = applyJitter(delay, cfg.Jitter)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

func applyJitter(delay time.Duration, factor float64) time.Duration {
	jitter := float64(delay) * factor
	adjusted := float64(delay) + (rand.Float64()-0.5)*2*jitter
	if adjusted < 0 {
		return 0
	}
	return time.Duration(adjusted)
}

// Fast is the configuration used by interactive request paths.
func Fast() Config {
	return Config{
		MaxAttempts: 3,
		Strategy:    &LinearBackoff{Delay: 100 * time.Millisecond},
		Jitter:      0.1,
	}
}

// Standard is the configuration used by background calls.
func Standard() Config {
	return Config{
		MaxAttempts: 5,
		Strategy: &ExponentialBackoff{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
		Jitter: 0.2,
	}
}
