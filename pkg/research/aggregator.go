package research

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/errkind"
)

// Round states. Every round terminates in StateCompleted; there is no failed
// terminal state because total failure is expressed as an AggregateResult
// whose every outcome is a failure.
type State int

const (
	StateIdle State = iota
	StateDispatched
	StateCollecting
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatched:
		return "dispatched"
	case StateCollecting:
		return "collecting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

const defaultSourceTimeout = 30 * time.Second

// Aggregator fans a research request out to every active source
// concurrently and joins the results into a positionally-ordered aggregate.
//
// Invariants it maintains:
//   - Aggregate never returns an error or panics to the caller.
//   - One outcome slot per invoked source, in roster order, independent of
//     completion order.
//   - A failure, timeout or panic in one source never cancels or delays a
//     sibling.
type Aggregator struct {
	sources       []Source
	premium       map[string]bool
	sourceTimeout time.Duration
	roundTimeout  time.Duration
	logger        *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSourceTimeout bounds each individual source invocation.
func WithSourceTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.sourceTimeout = d }
}

// WithRoundTimeout adds a defensive outer bound on the whole round. Slots
// not terminal by the deadline are recorded as timeout failures; the round
// still completes normally. Zero disables the bound.
func WithRoundTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.roundTimeout = d }
}

// WithPremiumSource marks a source name as the high-value one that upgrades
// quality to comprehensive when it succeeds.
func WithPremiumSource(name string) Option {
	return func(a *Aggregator) { a.premium[name] = true }
}

// NewAggregator creates an aggregator over the given sources. The slice
// order is the configuration order and fixes the outcome layout for every
// round.
func NewAggregator(logger *zap.Logger, sources []Source, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		sources:       sources,
		premium:       make(map[string]bool),
		sourceTimeout: defaultSourceTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromRoster builds an aggregator whose premium flags come from the probed
// roster. The binder maps each descriptor to its concrete source.
func FromRoster(logger *zap.Logger, active []Descriptor, bind func(Descriptor) Source, opts ...Option) *Aggregator {
	sources := make([]Source, 0, len(active))
	for _, d := range active {
		sources = append(sources, bind(d))
	}
	a := NewAggregator(logger, sources, opts...)
	for _, d := range active {
		if d.Premium {
			a.premium[d.Name] = true
		}
	}
	return a
}

// slotResult pairs an outcome with its pre-assigned slot index so collection
// never depends on completion order.
type slotResult struct {
	index   int
	outcome SourceOutcome
}

// Aggregate runs one research round. It always returns a completed,
// well-formed result: per-source errors, timeouts and panics are contained
// in their own outcome slot. An empty source list yields an empty outcome
// list with basic quality.
func (a *Aggregator) Aggregate(ctx context.Context, rc RequestContext) *AggregateResult {
	round := newRound(a.logger, rc)

	roundCtx := ctx
	var cancel context.CancelFunc
	if a.roundTimeout > 0 {
		roundCtx, cancel = context.WithTimeout(ctx, a.roundTimeout)
		defer cancel()
	}

	// Slots are pre-allocated by index before dispatch; each invocation
	// reports into its own slot only, so no locking is needed on the
	// outcome array itself.
	outcomes := make([]SourceOutcome, len(a.sources))
	results := make(chan slotResult, len(a.sources))

	round.transition(StateDispatched)
	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(index int, src Source) {
			defer wg.Done()
			results <- slotResult{index: index, outcome: a.invokeOne(roundCtx, src, rc)}
		}(i, src)
	}

	round.transition(StateCollecting)
	filled := make([]bool, len(a.sources))
	remaining := len(a.sources)

	var deadline <-chan struct{}
	if a.roundTimeout > 0 {
		deadline = roundCtx.Done()
	}

collect:
	for remaining > 0 {
		select {
		case r := <-results:
			outcomes[r.index] = r.outcome
			filled[r.index] = true
			remaining--
		case <-deadline:
			// Defensive upper bound hit. Take anything that already
			// finished, then mark the rest as timed out. Stragglers drain
			// into the buffered channel and their goroutines exit once
			// roundCtx is cancelled.
		drain:
			for {
				select {
				case r := <-results:
					outcomes[r.index] = r.outcome
					filled[r.index] = true
					remaining--
				default:
					break drain
				}
			}
			for i := range outcomes {
				if !filled[i] {
					outcomes[i] = SourceOutcome{
						Source: a.sources[i].Name(),
						Err: errkind.New(errkind.Timeout, errkind.CodeTimeout,
							"research round deadline exceeded before source completed"),
					}
				}
			}
			break collect
		}
	}

	result := &AggregateResult{
		Outcomes:    outcomes,
		Quality:     a.classifyQuality(outcomes),
		CompletedAt: time.Now().UTC(),
	}
	round.transition(StateCompleted)

	a.logger.Info("research round completed",
		zap.String("niche", rc.Niche),
		zap.String("quality", string(result.Quality)),
		zap.Int("sources", len(outcomes)),
		zap.Int("failures", countFailures(outcomes)))

	// Detach straggler bookkeeping from the request path.
	go func() {
		wg.Wait()
		close(results)
	}()

	return result
}

// invokeOne runs a single source invocation with its own timeout, converting
// every failure mode (error return, context expiry, panic) into an outcome.
func (a *Aggregator) invokeOne(ctx context.Context, src Source, rc RequestContext) (out SourceOutcome) {
	out = SourceOutcome{Source: src.Name()}
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("research source panicked",
				zap.String("source", src.Name()),
				zap.Any("panic", r))
			out.Payload = nil
			out.Err = errkind.Newf(errkind.Internal, errkind.CodePanic,
				"source %s panicked: %v", src.Name(), r)
		}
	}()

	invokeCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	payload, err := src.Invoke(invokeCtx, rc)
	if err != nil {
		classified := errkind.From(err)
		a.logger.Warn("research source failed",
			zap.String("source", src.Name()),
			zap.String("kind", string(classified.Kind)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		out.Err = classified
		return out
	}

	out.Payload = payload
	a.logger.Debug("research source succeeded",
		zap.String("source", src.Name()),
		zap.Duration("elapsed", time.Since(started)))
	return out
}

// classifyQuality upgrades the aggregate to comprehensive only when a
// premium source was invoked this round and succeeded.
func (a *Aggregator) classifyQuality(outcomes []SourceOutcome) Quality {
	for _, o := range outcomes {
		if a.premium[o.Source] && o.Succeeded() {
			return QualityComprehensive
		}
	}
	return QualityBasic
}

func countFailures(outcomes []SourceOutcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Succeeded() {
			n++
		}
	}
	return n
}

// round tracks the state machine of one aggregation round for logging and
// debugging; the state is per-round, never shared across requests.
type round struct {
	state  State
	logger *zap.Logger
	niche  string
}

func newRound(logger *zap.Logger, rc RequestContext) *round {
	return &round{state: StateIdle, logger: logger, niche: rc.Niche}
}

func (r *round) transition(to State) {
	r.logger.Debug("research round state change",
		zap.String("niche", r.niche),
		zap.String("from", r.state.String()),
		zap.String("to", to.String()))
	r.state = to
}
