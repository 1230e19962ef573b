package research

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CompetitorIntel is the scraping/automation collaborator that returns
// already-deserialized competitor data; the payload stays opaque here.
type CompetitorIntel interface {
	CompetitorSnapshot(ctx context.Context, niche, platform string) (map[string]any, error)
}

// CompetitorAnalysisSource is always-on. When its upstream collaborator
// fails it degrades to a locally computed placeholder payload instead of
// propagating: partial data beats no data for this source.
type CompetitorAnalysisSource struct {
	intel  CompetitorIntel
	logger *zap.Logger
}

// NewCompetitorAnalysisSource creates the competitor-analysis source. A nil
// intel client means the source always serves the local placeholder.
func NewCompetitorAnalysisSource(intel CompetitorIntel, logger *zap.Logger) *CompetitorAnalysisSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompetitorAnalysisSource{intel: intel, logger: logger}
}

// Name implements Source.
func (s *CompetitorAnalysisSource) Name() string { return SourceCompetitorAnalysis }

// Invoke implements Source.
func (s *CompetitorAnalysisSource) Invoke(ctx context.Context, rc RequestContext) (any, error) {
	if s.intel != nil {
		data, err := s.intel.CompetitorSnapshot(ctx, rc.Niche, rc.Platform)
		if err == nil {
			return data, nil
		}
		s.logger.Warn("competitor snapshot failed, using local baseline",
			zap.String("niche", rc.Niche),
			zap.Error(err))
	}
	return baselineCompetitorAnalysis(rc), nil
}

// baselineCompetitorAnalysis is the locally computed fallback payload.
func baselineCompetitorAnalysis(rc RequestContext) map[string]any {
	return map[string]any{
		"top_competitors": []string{
			fmt.Sprintf("top_%s_creators", rc.Niche),
			fmt.Sprintf("rising_%s_accounts", rc.Niche),
		},
		"successful_content_patterns": []string{
			"educational carousels with a save-worthy takeaway",
			"short-form video answering one niche question",
		},
		"engagement_strategies": []string{
			"reply to every comment in the first hour",
			"engage with adjacent accounts before posting",
		},
		"posting_schedules": "evenings and lunch hours perform best for this niche",
		"derived_locally":   true,
	}
}
