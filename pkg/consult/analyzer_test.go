package consult

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luna-ai/luna/pkg/llm"
)

type fakeLLM struct {
	response string
	err      error
	lastTask llm.TaskType
	calls    int
}

func (f *fakeLLM) Complete(_ context.Context, task llm.TaskType, _ string) (string, error) {
	f.calls++
	f.lastTask = task
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestAnalyzeDetectsNiche(t *testing.T) {
	tests := []struct {
		name    string
		message string
		niche   string
	}{
		{"fitness", "I post gym workouts and nutrition tips", "fitness"},
		{"beauty", "my makeup and skincare routines get good reach", "beauty"},
		{"travel", "I share backpacking destinations and travel vlogs", "travel"},
		{"finance", "I teach investing and budgeting basics", "finance"},
		{"no signal", "hello, can you help me grow?", "lifestyle"},
	}

	a := NewAnalyzer(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := a.Analyze(context.Background(), tt.message)
			assert.Equal(t, tt.niche, profile.Niche)
		})
	}
}

func TestAnalyzeExtractsGoals(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	profile := a.Analyze(context.Background(),
		"I want 10k followers and $2000 per month so I can quit my job and become an influencer")

	assert.Equal(t, 10_000, profile.Goals.TargetFollowers)
	assert.Equal(t, 2000, profile.Goals.TargetRevenue)
	assert.True(t, profile.Goals.BecomeInfluencer)
	assert.True(t, profile.Goals.FinancialIndependence)
}

func TestAnalyzeScaledFollowerTargets(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	tests := []struct {
		message string
		want    int
	}{
		{"get to 500 followers", 500},
		{"hit 10k followers", 10_000},
		{"reach 1.5m subscribers", 1_500_000},
	}

	for _, tt := range tests {
		profile := a.Analyze(context.Background(), tt.message)
		assert.Equal(t, tt.want, profile.Goals.TargetFollowers, tt.message)
	}
}

func TestAnalyzeExtractsTimeline(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	profile := a.Analyze(context.Background(), "I want to grow my fitness page in 3 months")

	assert.Equal(t, "3 months", profile.Timeline)
}

func TestAnalyzeDetectsPlatform(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	assert.Equal(t, "instagram", a.Analyze(context.Background(), "grow my page").Platform)
	assert.Equal(t, "tiktok", a.Analyze(context.Background(), "grow my tiktok").Platform)
	assert.Equal(t, "youtube", a.Analyze(context.Background(), "grow my youtube channel").Platform)
}

func TestAnalyzeExperienceLevel(t *testing.T) {
	a := NewAnalyzer(nil, nil)

	assert.Equal(t, "beginner", a.Analyze(context.Background(), "I just started posting workouts").Experience)
	assert.Equal(t, "experienced", a.Analyze(context.Background(), "after 5 years of coaching, I'm an experienced trainer").Experience)
}

func TestRefineNicheOverridesOnHigherConfidence(t *testing.T) {
	client := &fakeLLM{response: `{"niche": "crossfit", "confidence": 0.95}`}
	a := NewAnalyzer(client, nil)

	profile := a.Analyze(context.Background(), "I post gym workouts")

	assert.Equal(t, "crossfit", profile.Niche)
	assert.InDelta(t, 0.95, profile.NicheConfidence, 0.001)
	assert.Equal(t, llm.TaskClassification, client.lastTask)
}

func TestRefineNicheKeepsKeywordResultOnLowerConfidence(t *testing.T) {
	client := &fakeLLM{response: `{"niche": "cooking", "confidence": 0.1}`}
	a := NewAnalyzer(client, nil)

	profile := a.Analyze(context.Background(), "I post gym workouts and training plans")

	assert.Equal(t, "fitness", profile.Niche)
}

func TestRefineNicheSurvivesLLMFailure(t *testing.T) {
	client := &fakeLLM{err: errors.New("model overloaded")}
	a := NewAnalyzer(client, nil)

	profile := a.Analyze(context.Background(), "I post gym workouts")

	assert.Equal(t, "fitness", profile.Niche)
}

func TestRefineNicheSurvivesGarbageOutput(t *testing.T) {
	client := &fakeLLM{response: "Sure! The niche is probably fitness-adjacent."}
	a := NewAnalyzer(client, nil)

	profile := a.Analyze(context.Background(), "I post gym workouts")

	assert.Equal(t, "fitness", profile.Niche)
	require.Equal(t, 1, client.calls)
}

func TestRefineNicheParsesFencedJSON(t *testing.T) {
	client := &fakeLLM{response: "```json\n{\"niche\": \"powerlifting\", \"confidence\": 0.9}\n```"}
	a := NewAnalyzer(client, nil)

	profile := a.Analyze(context.Background(), "I post gym workouts")

	assert.Equal(t, "powerlifting", profile.Niche)
}
