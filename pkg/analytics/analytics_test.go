package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/config"
)

func TestNewFromConfigWithoutProject(t *testing.T) {
	p, err := NewFromConfig(context.Background(), &config.Config{}, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Close())
}

func TestNewFromConfigWithoutTopic(t *testing.T) {
	cfg := &config.Config{GoogleCloudProject: "proj"}

	p, err := NewFromConfig(context.Background(), cfg, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
}

func TestNopPublisherIsSafe(t *testing.T) {
	var p Publisher = NopPublisher{}

	p.Publish(context.Background(), Event{Name: EventConsultationCompleted})
	assert.NoError(t, p.Close())
}
