package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luna-ai/luna/pkg/errkind"
	"github.com/luna-ai/luna/pkg/retry"
)

type flakyClient struct {
	failures int
	err      error
	calls    int
}

func (f *flakyClient) Complete(context.Context, TaskType, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "ok", nil
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		Strategy:    &retry.LinearBackoff{Delay: time.Millisecond},
	}
}

func TestWithRetryRecoversTransientFailure(t *testing.T) {
	inner := &flakyClient{
		failures: 2,
		err:      errkind.New(errkind.Network, errkind.CodeServiceUnavailable, "overloaded"),
	}
	c := WithRetry(inner, fastRetry(), nil)

	out, err := c.Complete(context.Background(), TaskGeneral, "hello")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	inner := &flakyClient{
		failures: 5,
		err:      errkind.New(errkind.Auth, errkind.CodeAuthRejected, "bad key"),
	}
	c := WithRetry(inner, fastRetry(), nil)

	_, err := c.Complete(context.Background(), TaskGeneral, "hello")

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	inner := &flakyClient{
		failures: 10,
		err:      errkind.New(errkind.Timeout, errkind.CodeTimeout, "slow upstream"),
	}
	c := WithRetry(inner, fastRetry(), nil)

	_, err := c.Complete(context.Background(), TaskGeneral, "hello")

	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryNilInner(t *testing.T) {
	assert.Nil(t, WithRetry(nil, fastRetry(), nil))
}
