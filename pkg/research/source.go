package research

import (
	"context"

	"github.com/luna-ai/luna/pkg/config"
)

// Canonical source names. These double as the report roles the assembler
// maps onto, so they are part of the package contract.
const (
	SourceMarketResearch     = "market_research"
	SourceCompetitorAnalysis = "competitor_analysis"
	SourceContentTrends      = "content_trends"
)

// Source is one independently invokable research provider. Invoke either
// returns an already-deserialized payload or an error; it must honor ctx
// cancellation since the aggregator bounds every invocation with a deadline.
type Source interface {
	Name() string
	Invoke(ctx context.Context, rc RequestContext) (any, error)
}

// Descriptor is the static configuration entry for one source. Built once at
// process start; read-only afterwards, so it may be shared across requests
// without synchronization.
type Descriptor struct {
	Name      string
	Optional  bool
	Premium   bool
	Available func(cfg *config.Config) bool
}

// DefaultRoster returns the built-in source roster in configuration order.
// Order matters: it fixes the positional layout of every AggregateResult.
func DefaultRoster() []Descriptor {
	return []Descriptor{
		{
			Name:     SourceMarketResearch,
			Optional: true,
			Premium:  true,
			Available: func(cfg *config.Config) bool {
				return cfg.PremiumAvailable()
			},
		},
		{
			Name:      SourceCompetitorAnalysis,
			Available: alwaysAvailable,
		},
		{
			Name:      SourceContentTrends,
			Available: alwaysAvailable,
		},
	}
}

// Probe evaluates the roster against the configuration and returns the
// descriptors of the sources to invoke, preserving roster order. It is pure:
// no I/O, no failure path. An optional source with a missing credential is
// simply excluded, not treated as failed. The result is computed once per
// process start; stale-until-restart is acceptable.
func Probe(cfg *config.Config, roster []Descriptor) []Descriptor {
	active := make([]Descriptor, 0, len(roster))
	for _, d := range roster {
		if d.Optional && (d.Available == nil || !d.Available(cfg)) {
			continue
		}
		active = append(active, d)
	}
	return active
}

// AvailableNames returns just the names of the probed sources.
func AvailableNames(cfg *config.Config, roster []Descriptor) []string {
	active := Probe(cfg, roster)
	names := make([]string, len(active))
	for i, d := range active {
		names[i] = d.Name
	}
	return names
}

func alwaysAvailable(*config.Config) bool { return true }
