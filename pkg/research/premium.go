package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DeepResearcher is the premium research dependency: a remote API that
// answers a free-form query at a requested depth.
type DeepResearcher interface {
	Research(ctx context.Context, query, depth string) (string, error)
}

// PremiumResearchSource adapts the premium deep-research API. It is
// optional: when the credential is absent the probe omits it from the round
// entirely, so this type never has to model "unavailable".
//
// On invoke error the failure surfaces to the aggregator by default. The
// legacy development behavior of substituting a simulated payload can be
// restored with FallbackOnError, but that hides real outages and should stay
// off in production.
type PremiumResearchSource struct {
	api             DeepResearcher
	depth           string
	fallbackOnError bool
	logger          *zap.Logger
}

// NewPremiumResearchSource creates the premium market-research source.
func NewPremiumResearchSource(api DeepResearcher, depth string, fallbackOnError bool, logger *zap.Logger) *PremiumResearchSource {
	if depth == "" {
		depth = "comprehensive"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PremiumResearchSource{
		api:             api,
		depth:           depth,
		fallbackOnError: fallbackOnError,
		logger:          logger,
	}
}

// Name implements Source.
func (s *PremiumResearchSource) Name() string { return SourceMarketResearch }

// Invoke implements Source.
func (s *PremiumResearchSource) Invoke(ctx context.Context, rc RequestContext) (any, error) {
	query := buildMarketQuery(rc)

	result, err := s.api.Research(ctx, query, s.depth)
	if err != nil {
		if s.fallbackOnError {
			s.logger.Warn("premium research failed, substituting simulated payload",
				zap.String("niche", rc.Niche),
				zap.Error(err))
			return simulatedMarketResearch(rc), nil
		}
		return nil, fmt.Errorf("premium research for %q: %w", rc.Niche, err)
	}
	return result, nil
}

func buildMarketQuery(rc RequestContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s market analysis: competitor landscape and growth opportunities", rc.Niche, rc.Platform)
	if len(rc.Goals) > 0 {
		fmt.Fprintf(&b, "; creator goals: %s", strings.Join(rc.Goals, ", "))
	}
	return b.String()
}

// simulatedMarketResearch is the development-convenience payload used only
// when FallbackOnError is enabled.
func simulatedMarketResearch(rc RequestContext) string {
	return fmt.Sprintf(
		"Simulated %s market analysis: growing demand, educational content resonates with the target audience, "+
			"lead generation through free resources performs best. Generated locally at %s.",
		rc.Niche, time.Now().UTC().Format(time.RFC3339))
}
