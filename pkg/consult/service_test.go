package consult

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/analytics"
	"github.com/luna-ai/luna/pkg/config"
	"github.com/luna-ai/luna/pkg/research"
	"github.com/luna-ai/luna/pkg/schemas"
	"github.com/luna-ai/luna/pkg/store"
)

type countingSource struct {
	name    string
	payload any
	err     error
	calls   atomic.Int64
}

func (s *countingSource) Name() string { return s.name }

func (s *countingSource) Invoke(context.Context, research.RequestContext) (any, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

type capturingPublisher struct {
	events []analytics.Event
}

func (p *capturingPublisher) Publish(_ context.Context, ev analytics.Event) {
	p.events = append(p.events, ev)
}

func (p *capturingPublisher) Close() error { return nil }

type serviceFixture struct {
	svc     *Service
	history *store.MemoryStore
	events  *capturingPublisher
	market  *countingSource
}

func newFixture(t *testing.T, cfg *config.Config) *serviceFixture {
	t.Helper()

	market := &countingSource{name: research.SourceMarketResearch, payload: "market intel"}
	sources := []research.Source{
		market,
		&countingSource{name: research.SourceCompetitorAnalysis, payload: map[string]any{"top_competitors": []string{"a"}}},
		&countingSource{name: research.SourceContentTrends, payload: map[string]any{"trending_formats": []string{"reels"}}},
	}
	agg := research.NewAggregator(zap.NewNop(), sources,
		research.WithPremiumSource(research.SourceMarketResearch))

	history := store.NewMemoryStore()
	events := &capturingPublisher{}

	svc := NewService(Deps{
		Config:     cfg,
		Analyzer:   NewAnalyzer(nil, nil),
		Strategist: NewStrategist(nil, nil),
		Aggregator: agg,
		Sources:    []string{research.SourceMarketResearch, research.SourceCompetitorAnalysis, research.SourceContentTrends},
		History:    history,
		Events:     events,
	})

	return &serviceFixture{svc: svc, history: history, events: events, market: market}
}

func TestConsultHappyPath(t *testing.T) {
	fx := newFixture(t, &config.Config{ParallelAPIKey: "sk"})

	resp, err := fx.svc.Consult(context.Background(), &schemas.ConsultationRequest{
		Query:  "I post gym workouts and want 10k followers",
		UserID: "user-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ConsultationID)
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, "fitness", resp.Profile.Niche)
	assert.Equal(t, "comprehensive", resp.Quality)
	assert.Equal(t, "market intel", resp.Research.MarketResearch)
	assert.NotEmpty(t, resp.Recommendations)
	require.NotNil(t, resp.Automation)
	assert.True(t, resp.Automation.RequiresApproval)

	// Record persisted.
	records, err := fx.history.ListConsultations(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, resp.ConsultationID, records[0].ID)

	// Event published.
	require.Len(t, fx.events.events, 1)
	assert.Equal(t, analytics.EventConsultationCompleted, fx.events.events[0].Name)
	assert.Equal(t, "fitness", fx.events.events[0].Niche)
}

func TestConsultRequiresQuery(t *testing.T) {
	fx := newFixture(t, &config.Config{})

	_, err := fx.svc.Consult(context.Background(), &schemas.ConsultationRequest{Query: "   "})
	assert.Error(t, err)

	_, err = fx.svc.Consult(context.Background(), nil)
	assert.Error(t, err)
}

func TestConsultDefaultsAnonymousUser(t *testing.T) {
	fx := newFixture(t, &config.Config{})

	resp, err := fx.svc.Consult(context.Background(), &schemas.ConsultationRequest{Query: "help me grow"})

	require.NoError(t, err)
	assert.Equal(t, anonymousUser, resp.UserID)
}

func TestConsultReusesCachedResearch(t *testing.T) {
	fx := newFixture(t, &config.Config{ParallelAPIKey: "sk", CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := fx.svc.Consult(context.Background(), &schemas.ConsultationRequest{
			Query: "I post gym workouts",
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), fx.market.calls.Load())
}

func TestConsultDegradedResearchStillSucceeds(t *testing.T) {
	fx := newFixture(t, &config.Config{ParallelAPIKey: "sk"})
	fx.market.err = context.DeadlineExceeded

	resp, err := fx.svc.Consult(context.Background(), &schemas.ConsultationRequest{
		Query: "I post gym workouts",
	})

	require.NoError(t, err)
	assert.Equal(t, "basic", resp.Quality)
	// Failed premium slot is a placeholder, not an error dump.
	text, ok := resp.Research.MarketResearch.(string)
	require.True(t, ok)
	assert.NotContains(t, text, "deadline")

	// Degradation event plus completion event.
	require.Len(t, fx.events.events, 2)
	names := []string{fx.events.events[0].Name, fx.events.events[1].Name}
	assert.Contains(t, names, analytics.EventResearchDegraded)
	assert.Contains(t, names, analytics.EventConsultationCompleted)
}

func TestGenerateStrategy(t *testing.T) {
	fx := newFixture(t, &config.Config{ParallelAPIKey: "sk"})

	strategy, err := fx.svc.GenerateStrategy(context.Background(), &schemas.StrategyRequest{
		Niche:            "fitness",
		CurrentFollowers: 1000,
		TargetGrowth:     "10k followers",
		Timeline:         "90 days",
	})

	require.NoError(t, err)
	assert.Equal(t, "fitness", strategy.Niche)
	assert.Equal(t, anonymousUser, strategy.UserID)
	assert.Equal(t, 1050, strategy.Projections.Week1)
	assert.Equal(t, "high", strategy.Projections.Confidence)

	require.Len(t, fx.events.events, 1)
	assert.Equal(t, analytics.EventStrategyGenerated, fx.events.events[0].Name)
}

func TestGenerateStrategyRequiresNiche(t *testing.T) {
	fx := newFixture(t, &config.Config{})

	_, err := fx.svc.GenerateStrategy(context.Background(), &schemas.StrategyRequest{})
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	fx := newFixture(t, &config.Config{})

	_, err := fx.svc.Consult(context.Background(), &schemas.ConsultationRequest{
		Query:  "I post gym workouts",
		UserID: "user-9",
	})
	require.NoError(t, err)

	records, err := fx.svc.History(context.Background(), "user-9", 5)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStatus(t *testing.T) {
	fx := newFixture(t, &config.Config{ParallelAPIKey: "sk"})

	status := fx.svc.Status()

	assert.Equal(t, Version, status.Version)
	assert.Equal(t, "operational", status.Status)
	assert.True(t, status.PremiumResearch)
	assert.Len(t, status.AvailableSources, 3)
}
