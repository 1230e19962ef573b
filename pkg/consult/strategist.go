package consult

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/llm"
	"github.com/luna-ai/luna/pkg/prompts"
	"github.com/luna-ai/luna/pkg/scheduling"
	"github.com/luna-ai/luna/pkg/schemas"
)

// Weekly growth multipliers for the projection horizon.
const (
	week1Growth = 1.05
	week2Growth = 1.12
	week4Growth = 1.25
)

// Strategist turns a profile and research report into a growth strategy.
// The structured plan (calendar, engagement, projections) is deterministic;
// the narrative strategy text comes from the LLM when one is configured.
type Strategist struct {
	llm    llm.Client
	logger *zap.Logger
	prefs  scheduling.Preferences
}

// StrategistOption configures a Strategist.
type StrategistOption func(*Strategist)

// WithPreferences overrides the default engagement volumes and posting
// times.
func WithPreferences(prefs scheduling.Preferences) StrategistOption {
	return func(s *Strategist) { s.prefs = prefs }
}

// NewStrategist creates a Strategist. A nil llm client yields plans without
// narrative text.
func NewStrategist(client llm.Client, logger *zap.Logger, opts ...StrategistOption) *Strategist {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Strategist{llm: client, logger: logger, prefs: scheduling.Defaults()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildStrategy assembles the full growth strategy for an explicit request.
func (s *Strategist) BuildStrategy(ctx context.Context, req *schemas.StrategyRequest, report *schemas.ResearchReport) *schemas.GrowthStrategy {
	strategy := &schemas.GrowthStrategy{
		StrategyID:       uuid.NewString(),
		UserID:           req.UserID,
		Niche:            req.Niche,
		CurrentFollowers: req.CurrentFollowers,
		TargetGrowth:     req.TargetGrowth,
		Timeline:         req.Timeline,
		ContentPlan:      s.contentPlan(req.Niche),
		Engagement:       s.engagementPlan(req.Niche),
		Projections:      s.projections(req.CurrentFollowers, report),
		CreatedAt:        time.Now().UTC(),
	}
	return strategy
}

// Narrative renders the strategy text for a consultation. Returns "" when no
// LLM is configured or synthesis fails; the structured plans stand alone.
func (s *Strategist) Narrative(ctx context.Context, profile *schemas.UserProfile, report *schemas.ResearchReport) string {
	if s.llm == nil {
		return ""
	}

	in := prompts.StrategyInput{
		Niche:    profile.Niche,
		Platform: profile.Platform,
		Timeline: profile.Timeline,
		Quality:  report.Quality,
	}
	if profile.Goals.TargetFollowers > 0 {
		in.Goals = append(in.Goals, fmt.Sprintf("reach %d followers", profile.Goals.TargetFollowers))
	}
	if profile.Goals.TargetRevenue > 0 {
		in.Goals = append(in.Goals, fmt.Sprintf("earn $%d per month", profile.Goals.TargetRevenue))
	}
	if profile.Goals.BecomeInfluencer {
		in.Goals = append(in.Goals, "become an influencer")
	}
	if market, ok := report.MarketResearch.(string); ok {
		in.MarketResearch = market
	}

	prompt, err := prompts.Strategy(in)
	if err != nil {
		s.logger.Warn("strategy prompt render failed", zap.Error(err))
		return ""
	}

	text, err := s.llm.Complete(ctx, llm.TaskStrategy, prompt)
	if err != nil {
		s.logger.Warn("strategy synthesis failed, returning structured plan only", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

// Recommendations derives headline advice from the profile and research
// quality.
func (s *Strategist) Recommendations(profile *schemas.UserProfile, report *schemas.ResearchReport) []string {
	recs := []string{
		fmt.Sprintf("Post consistently in the %s niche: one feed post daily plus 2-3 stories", profile.Niche),
		fmt.Sprintf("Engage authentically: up to %d likes, %d comments, %d follows per day",
			s.prefs.DailyLikes, s.prefs.DailyComments, s.prefs.DailyFollows),
	}
	if report.Quality == "comprehensive" {
		recs = append(recs, "Act on the market research findings above; they reflect live niche data")
	} else {
		recs = append(recs, "Re-run this consultation with premium research enabled for niche-specific market data")
	}
	if profile.Goals.TargetFollowers > 0 {
		recs = append(recs, fmt.Sprintf("Track weekly progress toward your %d follower target", profile.Goals.TargetFollowers))
	}
	return recs
}

// AutomationPlan proposes bounded engagement automation. Every plan requires
// explicit user approval before any task runs.
func (s *Strategist) AutomationPlan(profile *schemas.UserProfile) *schemas.AutomationPlan {
	criteria := map[string]string{
		"niche":    profile.Niche,
		"platform": profile.Platform,
	}
	return &schemas.AutomationPlan{
		RequiresApproval: true,
		Tasks: []schemas.AutomationTask{
			{ActionType: "like", TargetCriteria: criteria, DailyLimit: s.prefs.DailyLikes},
			{ActionType: "comment", TargetCriteria: criteria, DailyLimit: s.prefs.DailyComments,
				MessageTemplate: "Love this! What got you started with " + profile.Niche + "?"},
			{ActionType: "follow", TargetCriteria: criteria, DailyLimit: s.prefs.DailyFollows},
		},
	}
}

func (s *Strategist) contentPlan(niche string) schemas.ContentPlan {
	times := s.prefs.PostingTimes
	if len(times) == 0 {
		times = scheduling.Defaults().PostingTimes
	}

	themes := []string{"educational", "behind the scenes", "transformation", "community question"}
	calendar := make([]schemas.ContentRecommendation, 0, len(themes))
	for i, theme := range themes {
		postType := "reel"
		if i%2 == 1 {
			postType = "carousel"
		}
		calendar = append(calendar, schemas.ContentRecommendation{
			PostType:        postType,
			Theme:           theme,
			CaptionTemplate: fmt.Sprintf("%s content for the %s community", capitalize(theme), niche),
			Hashtags:        nicheHashtags(niche),
			BestTime:        times[i%len(times)],
		})
	}
	return schemas.ContentPlan{
		PostingFrequency: "1-2 posts daily",
		OptimalTimes:     times,
		ContentMix:       "40% educational, 30% entertaining, 20% personal, 10% promotional",
		HashtagStrategy:  "Mix of niche-specific and broader discovery tags, 8-15 per post",
		Calendar:         calendar,
	}
}

func (s *Strategist) engagementPlan(niche string) schemas.EngagementPlan {
	return schemas.EngagementPlan{
		DailyLikes:    s.prefs.DailyLikes,
		DailyComments: s.prefs.DailyComments,
		DailyFollows:  s.prefs.DailyFollows,
		Targeting:     fmt.Sprintf("accounts active in %s hashtags within the last 48 hours", niche),
	}
}

func (s *Strategist) projections(current int, report *schemas.ResearchReport) schemas.GrowthProjections {
	if current <= 0 {
		current = 100
	}
	confidence := "medium"
	if report != nil && report.Quality == "comprehensive" {
		confidence = "high"
	}
	return schemas.GrowthProjections{
		Week1:      int(float64(current) * week1Growth),
		Week2:      int(float64(current) * week2Growth),
		Week4:      int(float64(current) * week4Growth),
		Confidence: confidence,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nicheHashtags(niche string) []string {
	clean := strings.ToLower(strings.ReplaceAll(niche, " ", ""))
	if clean == "" {
		clean = "growth"
	}
	return []string{"#" + clean, "#" + clean + "life", "#creator", "#growth"}
}
