// Package analytics publishes usage events to Pub/Sub. Publishing is best
// effort: analytics must never fail a consultation.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/config"
)

// Event names emitted by the consultation pipeline.
const (
	EventConsultationCompleted = "consultation_completed"
	EventStrategyGenerated     = "strategy_generated"
	EventResearchDegraded      = "research_degraded"
)

// Event is one analytics datapoint.
type Event struct {
	Name      string         `json:"event"`
	UserID    string         `json:"user_id,omitempty"`
	Niche     string         `json:"niche,omitempty"`
	Quality   string         `json:"quality,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher emits analytics events.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}

// NopPublisher drops all events. Used when no analytics topic is
// configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
func (NopPublisher) Close() error                   { return nil }

// PubSubPublisher publishes events to a Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewFromConfig returns a Pub/Sub publisher when both a project and a topic
// are configured, otherwise a NopPublisher.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Publisher, error) {
	if cfg.GoogleCloudProject == "" || cfg.AnalyticsTopic == "" {
		return NopPublisher{}, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.GoogleCloudProject)
	if err != nil {
		return nil, err
	}
	return &PubSubPublisher{
		client: client,
		topic:  client.Topic(cfg.AnalyticsTopic),
		logger: logger,
	}, nil
}

// Publish implements Publisher. Failures are logged and swallowed.
func (p *PubSubPublisher) Publish(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("analytics event encode failed", zap.String("event", ev.Name), zap.Error(err))
		return
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event": ev.Name},
	})
	if _, err := res.Get(ctx); err != nil {
		p.logger.Warn("analytics publish failed", zap.String("event", ev.Name), zap.Error(err))
	}
}

// Close flushes and releases the topic and client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
