// Package schemas defines the wire-level records exchanged between Luna's
// consultation surfaces (HTTP, MCP) and the service layer.
package schemas

import "time"

// ConsultationRequest is a free-form consultation query from a creator.
type ConsultationRequest struct {
	Query   string `json:"query"`
	UserID  string `json:"user_id,omitempty"`
	Context string `json:"context,omitempty"`
}

// StrategyRequest asks for a full growth strategy for a known niche.
type StrategyRequest struct {
	Niche            string `json:"niche"`
	CurrentFollowers int    `json:"current_followers"`
	TargetGrowth     string `json:"target_growth"`
	Timeline         string `json:"timeline"`
	UserID           string `json:"user_id,omitempty"`
}

// UserProfile is what the context analyzer extracts from free-form text.
type UserProfile struct {
	Niche           string   `json:"niche"`
	NicheConfidence float64  `json:"niche_confidence"`
	NicheReasoning  string   `json:"niche_reasoning,omitempty"`
	SecondaryNiches []string `json:"secondary_niches,omitempty"`
	Experience      string   `json:"experience_level"`
	Goals           Goals    `json:"goals"`
	Timeline        string   `json:"timeline,omitempty"`
	Audience        Audience `json:"target_audience"`
	Platform        string   `json:"platform"`
}

// Goals holds quantitative and qualitative targets parsed from the query.
type Goals struct {
	TargetFollowers       int  `json:"target_followers,omitempty"`
	TargetRevenue         int  `json:"target_revenue,omitempty"`
	BecomeInfluencer      bool `json:"become_influencer,omitempty"`
	FinancialIndependence bool `json:"financial_independence,omitempty"`
}

// Audience describes who the creator is trying to reach.
type Audience struct {
	Primary   string   `json:"primary_audience"`
	Secondary []string `json:"secondary_audiences,omitempty"`
}

// ResearchReport is the fixed-shape output of a research round. Failed
// source slots carry a human-readable placeholder instead of raw error
// detail; operators see failures in the logs, not here.
type ResearchReport struct {
	MarketResearch     any       `json:"market_research"`
	CompetitorAnalysis any       `json:"competitor_analysis"`
	ContentTrends      any       `json:"content_trends"`
	Quality            string    `json:"research_quality"`
	CompletedAt        time.Time `json:"research_completed_at"`
}

// ConsultationResponse is the assembled answer for one consultation.
type ConsultationResponse struct {
	ConsultationID  string          `json:"consultation_id"`
	UserID          string          `json:"user_id"`
	Query           string          `json:"query"`
	Profile         *UserProfile    `json:"profile"`
	Research        *ResearchReport `json:"research"`
	Strategy        string          `json:"strategy,omitempty"`
	Recommendations []string        `json:"recommendations"`
	Automation      *AutomationPlan `json:"automation_plan,omitempty"`
	Quality         string          `json:"consultation_quality"`
	CreatedAt       time.Time       `json:"created_at"`
}

// GrowthStrategy is the response for an explicit strategy request.
type GrowthStrategy struct {
	StrategyID       string            `json:"strategy_id"`
	UserID           string            `json:"user_id"`
	Niche            string            `json:"niche"`
	CurrentFollowers int               `json:"current_followers"`
	TargetGrowth     string            `json:"target_growth"`
	Timeline         string            `json:"timeline"`
	ContentPlan      ContentPlan       `json:"content_plan"`
	Engagement       EngagementPlan    `json:"engagement_strategy"`
	Projections      GrowthProjections `json:"growth_projections"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ContentPlan describes what and when to post.
type ContentPlan struct {
	PostingFrequency string                  `json:"posting_frequency"`
	OptimalTimes     []string                `json:"optimal_times"`
	ContentMix       string                  `json:"content_mix"`
	HashtagStrategy  string                  `json:"hashtag_strategy"`
	Calendar         []ContentRecommendation `json:"calendar,omitempty"`
}

// ContentRecommendation is a single planned post.
type ContentRecommendation struct {
	PostType        string   `json:"post_type"`
	Theme           string   `json:"theme"`
	CaptionTemplate string   `json:"caption_template"`
	Hashtags        []string `json:"hashtags"`
	BestTime        string   `json:"best_time"`
}

// EngagementPlan holds safe daily interaction volumes.
type EngagementPlan struct {
	DailyLikes    int    `json:"daily_likes"`
	DailyComments int    `json:"daily_comments"`
	DailyFollows  int    `json:"daily_follows"`
	Targeting     string `json:"targeting"`
}

// GrowthProjections estimates follower counts over the plan horizon.
type GrowthProjections struct {
	Week1      int    `json:"week_1"`
	Week2      int    `json:"week_2"`
	Week4      int    `json:"week_4"`
	Confidence string `json:"confidence"`
}

// AutomationPlan is the approval-required set of automation tasks.
type AutomationPlan struct {
	Tasks            []AutomationTask `json:"tasks"`
	RequiresApproval bool             `json:"requires_user_approval"`
}

// AutomationTask is one bounded automation action.
type AutomationTask struct {
	ActionType      string            `json:"action_type"`
	TargetCriteria  map[string]string `json:"target_criteria"`
	DailyLimit      int               `json:"daily_limit"`
	MessageTemplate string            `json:"message_template,omitempty"`
}

// ConsultationRecord is what the history store persists per consultation.
type ConsultationRecord struct {
	ID        string                `json:"id" firestore:"id"`
	UserID    string                `json:"user_id" firestore:"user_id"`
	Query     string                `json:"query" firestore:"query"`
	Niche     string                `json:"niche" firestore:"niche"`
	Quality   string                `json:"quality" firestore:"quality"`
	Response  *ConsultationResponse `json:"response" firestore:"response"`
	CreatedAt time.Time             `json:"created_at" firestore:"created_at"`
}

// SystemStatus is returned by the status endpoint.
type SystemStatus struct {
	System           string    `json:"luna_ai_system"`
	Version          string    `json:"version"`
	Status           string    `json:"status"`
	PremiumResearch  bool      `json:"premium_research_enabled"`
	AvailableSources []string  `json:"available_sources"`
	Timestamp        time.Time `json:"timestamp"`
}
