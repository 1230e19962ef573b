package research

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TrendIntel is the collaborator that returns current content-trend data.
type TrendIntel interface {
	TrendSnapshot(ctx context.Context, niche, platform string) (map[string]any, error)
}

// TrendAnalysisSource is always-on with the same fallback discipline as the
// competitor source: upstream failure yields a local baseline, never an
// error.
type TrendAnalysisSource struct {
	intel  TrendIntel
	logger *zap.Logger
}

// NewTrendAnalysisSource creates the content-trend source. A nil intel
// client means the source always serves the local baseline.
func NewTrendAnalysisSource(intel TrendIntel, logger *zap.Logger) *TrendAnalysisSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendAnalysisSource{intel: intel, logger: logger}
}

// Name implements Source.
func (s *TrendAnalysisSource) Name() string { return SourceContentTrends }

// Invoke implements Source.
func (s *TrendAnalysisSource) Invoke(ctx context.Context, rc RequestContext) (any, error) {
	if s.intel != nil {
		data, err := s.intel.TrendSnapshot(ctx, rc.Niche, rc.Platform)
		if err == nil {
			return data, nil
		}
		s.logger.Warn("trend snapshot failed, using local baseline",
			zap.String("niche", rc.Niche),
			zap.Error(err))
	}
	return baselineTrendAnalysis(rc), nil
}

// baselineTrendAnalysis is the locally computed fallback payload.
func baselineTrendAnalysis(rc RequestContext) map[string]any {
	return map[string]any{
		"trending_formats": []string{"reels", "carousels", "stories"},
		"viral_hooks": []string{
			fmt.Sprintf("the %s mistake everyone makes", rc.Niche),
			fmt.Sprintf("what nobody tells you about %s", rc.Niche),
			"before and after transformations",
		},
		"hashtag_trends": []string{
			"#" + sanitizeTag(rc.Niche),
			"#" + sanitizeTag(rc.Niche) + "tips",
			"#contentcreator",
		},
		"derived_locally": true,
	}
}

func sanitizeTag(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		}
	}
	if len(out) == 0 {
		return "growth"
	}
	return string(out)
}
