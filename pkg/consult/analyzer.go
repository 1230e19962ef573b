// Package consult implements the consultation pipeline: analyze the
// creator's message, run a research round, and synthesize strategy and
// automation recommendations.
package consult

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/llm"
	"github.com/luna-ai/luna/pkg/prompts"
	"github.com/luna-ai/luna/pkg/schemas"
)

// nicheKeywords maps a canonical niche to the phrases that signal it.
// Matching is whole-word and case-insensitive.
var nicheKeywords = map[string][]string{
	"fitness":     {"fitness", "gym", "workout", "workouts", "training", "yoga", "pilates", "bodybuilding", "crossfit", "nutrition"},
	"beauty":      {"beauty", "makeup", "skincare", "cosmetics", "hair", "nails"},
	"travel":      {"travel", "traveling", "wanderlust", "backpacking", "destinations", "vacation"},
	"food":        {"food", "cooking", "recipe", "recipes", "baking", "chef", "foodie", "meal"},
	"fashion":     {"fashion", "style", "outfit", "outfits", "clothing", "streetwear"},
	"tech":        {"tech", "technology", "coding", "programming", "gadgets", "software", "ai"},
	"business":    {"business", "entrepreneur", "entrepreneurship", "startup", "marketing", "ecommerce"},
	"gaming":      {"gaming", "gamer", "esports", "streaming", "twitch"},
	"music":       {"music", "musician", "singer", "producer", "dj"},
	"art":         {"art", "artist", "drawing", "painting", "illustration", "design"},
	"photography": {"photography", "photographer", "photos"},
	"parenting":   {"parenting", "mom", "dad", "motherhood", "fatherhood", "baby"},
	"finance":     {"finance", "investing", "stocks", "crypto", "budgeting", "money"},
	"education":   {"education", "teaching", "tutorial", "tutorials", "learning", "study"},
	"lifestyle":   {"lifestyle", "vlog", "vlogging", "daily life", "wellness", "mindfulness"},
}

// nicheOrder fixes the scan order over nicheKeywords.
var nicheOrder = []string{
	"fitness", "beauty", "travel", "food", "fashion", "tech", "business",
	"gaming", "music", "art", "photography", "parenting", "finance",
	"education", "lifestyle",
}

var (
	followerTargetRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(k|m|thousand|million)?\s*(?:followers|subs|subscribers)`)
	revenueTargetRe  = regexp.MustCompile(`(?i)\$\s?(\d+(?:[.,]\d+)?)\s*(k|m)?(?:\s*(?:/|per)\s*month)?`)
	timelineRe       = regexp.MustCompile(`(?i)(?:in|within|over|next)\s+(\d+)\s+(day|days|week|weeks|month|months|year|years)`)
	wordRe           = regexp.MustCompile(`[a-z]+`)
)

// Analyzer extracts a creator profile from free-form text. The keyword pass
// always runs; the LLM refinement runs when a client is configured and only
// overrides the niche when it parses cleanly.
type Analyzer struct {
	llm    llm.Client
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer. A nil llm client disables refinement.
func NewAnalyzer(client llm.Client, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{llm: client, logger: logger}
}

// Analyze builds a UserProfile from the message.
func (a *Analyzer) Analyze(ctx context.Context, message string) *schemas.UserProfile {
	profile := a.analyzeKeywords(message)

	if a.llm != nil {
		a.refineNiche(ctx, message, profile)
	}
	return profile
}

func (a *Analyzer) analyzeKeywords(message string) *schemas.UserProfile {
	lower := strings.ToLower(message)
	words := make(map[string]bool)
	for _, w := range wordRe.FindAllString(lower, -1) {
		words[w] = true
	}

	profile := &schemas.UserProfile{
		Niche:      "lifestyle",
		Experience: "beginner",
		Platform:   "instagram",
		Audience:   schemas.Audience{Primary: "general social media users"},
	}

	// Niche: best keyword hit count wins; ties go to the earlier entry in
	// nicheOrder so classification is deterministic.
	bestScore := 0
	var secondary []string
	for _, niche := range nicheOrder {
		score := 0
		for _, kw := range nicheKeywords[niche] {
			if strings.Contains(kw, " ") {
				if strings.Contains(lower, kw) {
					score++
				}
			} else if words[kw] {
				score++
			}
		}
		if score > bestScore {
			if bestScore > 0 {
				secondary = append(secondary, profile.Niche)
			}
			profile.Niche = niche
			bestScore = score
		} else if score > 0 && niche != profile.Niche {
			secondary = append(secondary, niche)
		}
	}
	if bestScore > 0 {
		profile.NicheConfidence = 0.5 + 0.1*float64(min(bestScore, 4))
		profile.NicheReasoning = "keyword match"
		profile.SecondaryNiches = secondary
	} else {
		profile.NicheConfidence = 0.2
		profile.NicheReasoning = "default, no niche signals in message"
	}

	if m := followerTargetRe.FindStringSubmatch(message); m != nil {
		profile.Goals.TargetFollowers = parseScaledNumber(m[1], m[2])
	}
	if m := revenueTargetRe.FindStringSubmatch(message); m != nil {
		profile.Goals.TargetRevenue = parseScaledNumber(m[1], m[2])
	}
	if strings.Contains(lower, "influencer") {
		profile.Goals.BecomeInfluencer = true
	}
	if strings.Contains(lower, "quit my job") || strings.Contains(lower, "financial independence") || strings.Contains(lower, "full time") || strings.Contains(lower, "full-time") {
		profile.Goals.FinancialIndependence = true
	}

	if m := timelineRe.FindStringSubmatch(message); m != nil {
		profile.Timeline = m[1] + " " + strings.ToLower(m[2])
	}

	if strings.Contains(lower, "years of") || strings.Contains(lower, "experienced") || strings.Contains(lower, "been doing this") {
		profile.Experience = "experienced"
	} else if strings.Contains(lower, "just started") || strings.Contains(lower, "new to") || strings.Contains(lower, "beginner") {
		profile.Experience = "beginner"
	}

	if profile.Niche != "lifestyle" {
		profile.Audience.Primary = profile.Niche + " enthusiasts"
	}

	if strings.Contains(lower, "tiktok") {
		profile.Platform = "tiktok"
	} else if strings.Contains(lower, "youtube") {
		profile.Platform = "youtube"
	}

	return profile
}

type nicheClassification struct {
	Niche      string  `json:"niche"`
	Confidence float64 `json:"confidence"`
}

// refineNiche asks the LLM to second-guess the keyword classification. Any
// failure keeps the keyword result; refinement is best effort.
func (a *Analyzer) refineNiche(ctx context.Context, message string, profile *schemas.UserProfile) {
	prompt, err := prompts.NicheClassification(prompts.NicheClassificationInput{
		Message: message,
		Niche:   profile.Niche,
	})
	if err != nil {
		a.logger.Warn("niche prompt render failed", zap.Error(err))
		return
	}

	raw, err := a.llm.Complete(ctx, llm.TaskClassification, prompt)
	if err != nil {
		a.logger.Warn("niche refinement failed, keeping keyword result",
			zap.String("niche", profile.Niche), zap.Error(err))
		return
	}

	var parsed nicheClassification
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		a.logger.Warn("niche refinement returned unparseable output", zap.Error(err))
		return
	}
	if parsed.Niche == "" || parsed.Confidence < profile.NicheConfidence {
		return
	}

	profile.Niche = strings.ToLower(strings.TrimSpace(parsed.Niche))
	profile.NicheConfidence = parsed.Confidence
	profile.NicheReasoning = "llm classification"
}

// extractJSONObject pulls the first {...} span out of model output, which
// often wraps JSON in prose or code fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func parseScaledNumber(digits, suffix string) int {
	digits = strings.ReplaceAll(digits, ",", ".")
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(suffix) {
	case "k", "thousand":
		f *= 1_000
	case "m", "million":
		f *= 1_000_000
	}
	return int(f)
}
