// Package research implements Luna's multi-source research round: a
// capability probe over configured sources, a partial-failure-tolerant
// fan-out aggregator, and the assembler that turns the aggregate into a
// fixed-shape report.
package research

import (
	"time"

	"github.com/luna-ai/luna/pkg/errkind"
)

// Quality classifies an aggregate by whether the premium source contributed.
type Quality string

const (
	QualityComprehensive Quality = "comprehensive"
	QualityBasic         Quality = "basic"
)

// RequestContext is the immutable input to one research round. It is owned
// by the round that created it and never mutated after construction.
type RequestContext struct {
	Niche    string
	Goals    []string
	Platform string
}

// SourceOutcome is the terminal result of invoking one source: a payload on
// success or a classified error on failure, never both.
type SourceOutcome struct {
	Source  string         `json:"source"`
	Payload any            `json:"payload,omitempty"`
	Err     *errkind.Error `json:"error,omitempty"`
}

// Succeeded reports whether the source produced a payload.
func (o SourceOutcome) Succeeded() bool {
	return o.Err == nil
}

// AggregateResult is the write-once output of a research round. Outcomes are
// in configuration order, one slot per invoked source, regardless of
// completion order.
type AggregateResult struct {
	Outcomes    []SourceOutcome `json:"outcomes"`
	Quality     Quality         `json:"quality"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Outcome returns the outcome for a named source, if that source was invoked
// this round.
func (r *AggregateResult) Outcome(source string) (SourceOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Source == source {
			return o, true
		}
	}
	return SourceOutcome{}, false
}
