package research

import (
	"github.com/luna-ai/luna/pkg/schemas"
)

// Placeholder text substituted for a failed or absent slot. Raw error detail
// stays in the logs, never in the report.
const (
	placeholderMarket     = "Market research was not available for this round."
	placeholderCompetitor = "Competitor analysis was not available for this round."
	placeholderTrends     = "Content trend analysis was not available for this round."
)

// AssembleReport maps an aggregate into the fixed-shape research report.
//
// Slots are matched by source role rather than raw position: when the
// premium source is omitted from a round the remaining outcomes shift left,
// and a purely positional mapping would misfile competitor data as market
// research. Positional determinism inside the aggregate still holds; this
// mapping just keys the fixed report fields off the role names.
func AssembleReport(res *AggregateResult) *schemas.ResearchReport {
	report := &schemas.ResearchReport{
		MarketResearch:     placeholderMarket,
		CompetitorAnalysis: placeholderCompetitor,
		ContentTrends:      placeholderTrends,
		Quality:            string(res.Quality),
		CompletedAt:        res.CompletedAt,
	}

	if o, ok := res.Outcome(SourceMarketResearch); ok && o.Succeeded() {
		report.MarketResearch = o.Payload
	}
	if o, ok := res.Outcome(SourceCompetitorAnalysis); ok && o.Succeeded() {
		report.CompetitorAnalysis = o.Payload
	}
	if o, ok := res.Outcome(SourceContentTrends); ok && o.Succeeded() {
		report.ContentTrends = o.Payload
	}

	return report
}
