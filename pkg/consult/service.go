package consult

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/analytics"
	"github.com/luna-ai/luna/pkg/cache"
	"github.com/luna-ai/luna/pkg/config"
	"github.com/luna-ai/luna/pkg/errkind"
	"github.com/luna-ai/luna/pkg/research"
	"github.com/luna-ai/luna/pkg/schemas"
	"github.com/luna-ai/luna/pkg/store"
)

// Version is reported by the status endpoint.
const Version = "2.0.0"

const anonymousUser = "anonymous"

// Service runs the consultation pipeline end to end.
type Service struct {
	cfg        *config.Config
	logger     *zap.Logger
	analyzer   *Analyzer
	strategist *Strategist
	aggregator *research.Aggregator
	sources    []string
	history    store.Store
	events     analytics.Publisher
	reports    *cache.Cache[*schemas.ResearchReport]
	now        func() time.Time
}

// Deps collects the service's collaborators. Logger, History and Events are
// optional; nil gets a safe default.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Analyzer   *Analyzer
	Strategist *Strategist
	Aggregator *research.Aggregator
	// Sources is the probed active source list, used for status reporting.
	Sources []string
	History store.Store
	Events  analytics.Publisher
}

// NewService wires the consultation pipeline.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.History == nil {
		d.History = store.NewMemoryStore()
	}
	if d.Events == nil {
		d.Events = analytics.NopPublisher{}
	}
	return &Service{
		cfg:        d.Config,
		logger:     d.Logger,
		analyzer:   d.Analyzer,
		strategist: d.Strategist,
		aggregator: d.Aggregator,
		sources:    d.Sources,
		history:    d.History,
		events:     d.Events,
		reports:    cache.New[*schemas.ResearchReport](d.Config.CacheTTL),
		now:        time.Now,
	}
}

// Consult answers one free-form consultation: analyze the message, run a
// research round, and synthesize recommendations.
func (s *Service) Consult(ctx context.Context, req *schemas.ConsultationRequest) (*schemas.ConsultationResponse, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, errkind.New(errkind.Validation, errkind.CodeMissingRequired, "consultation query is required")
	}
	userID := req.UserID
	if userID == "" {
		userID = anonymousUser
	}

	message := req.Query
	if req.Context != "" {
		message += "\n" + req.Context
	}
	profile := s.analyzer.Analyze(ctx, message)

	report := s.researchRound(ctx, research.RequestContext{
		Niche:    profile.Niche,
		Goals:    goalStrings(profile.Goals),
		Platform: profile.Platform,
	})

	resp := &schemas.ConsultationResponse{
		ConsultationID:  uuid.NewString(),
		UserID:          userID,
		Query:           req.Query,
		Profile:         profile,
		Research:        report,
		Strategy:        s.strategist.Narrative(ctx, profile, report),
		Recommendations: s.strategist.Recommendations(profile, report),
		Automation:      s.strategist.AutomationPlan(profile),
		Quality:         report.Quality,
		CreatedAt:       s.now().UTC(),
	}

	s.persist(ctx, &schemas.ConsultationRecord{
		ID:        resp.ConsultationID,
		UserID:    userID,
		Query:     req.Query,
		Niche:     profile.Niche,
		Quality:   resp.Quality,
		Response:  resp,
		CreatedAt: resp.CreatedAt,
	})

	s.events.Publish(ctx, analytics.Event{
		Name:    analytics.EventConsultationCompleted,
		UserID:  userID,
		Niche:   profile.Niche,
		Quality: resp.Quality,
	})

	return resp, nil
}

// GenerateStrategy builds an explicit growth strategy for a known niche.
func (s *Service) GenerateStrategy(ctx context.Context, req *schemas.StrategyRequest) (*schemas.GrowthStrategy, error) {
	if req == nil || strings.TrimSpace(req.Niche) == "" {
		return nil, errkind.New(errkind.Validation, errkind.CodeMissingRequired, "strategy niche is required")
	}
	if req.UserID == "" {
		req.UserID = anonymousUser
	}

	report := s.researchRound(ctx, research.RequestContext{
		Niche:    req.Niche,
		Goals:    []string{req.TargetGrowth},
		Platform: "instagram",
	})

	strategy := s.strategist.BuildStrategy(ctx, req, report)

	s.events.Publish(ctx, analytics.Event{
		Name:    analytics.EventStrategyGenerated,
		UserID:  req.UserID,
		Niche:   req.Niche,
		Quality: report.Quality,
		Extra:   map[string]any{"current_followers": req.CurrentFollowers},
	})

	return strategy, nil
}

// History returns a user's most recent consultations, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*schemas.ConsultationRecord, error) {
	if userID == "" {
		userID = anonymousUser
	}
	return s.history.ListConsultations(ctx, userID, limit)
}

// Status reports system health for the status endpoint.
func (s *Service) Status() *schemas.SystemStatus {
	return &schemas.SystemStatus{
		System:           "Luna Marketing Assistant",
		Version:          Version,
		Status:           "operational",
		PremiumResearch:  s.cfg.PremiumAvailable(),
		AvailableSources: s.sources,
		Timestamp:        s.now().UTC(),
	}
}

// researchRound runs (or recalls) the research fan-out for a context. The
// cache key ignores goals: market conditions for a niche do not change with
// one creator's targets.
func (s *Service) researchRound(ctx context.Context, rc research.RequestContext) *schemas.ResearchReport {
	key := rc.Niche + "|" + rc.Platform
	if report, ok := s.reports.Get(key); ok {
		s.logger.Debug("research cache hit", zap.String("niche", rc.Niche))
		return report
	}

	result := s.aggregator.Aggregate(ctx, rc)
	report := research.AssembleReport(result)

	if result.Quality == research.QualityBasic && s.cfg.PremiumAvailable() {
		// Premium was in the round but did not deliver.
		s.events.Publish(ctx, analytics.Event{
			Name:  analytics.EventResearchDegraded,
			Niche: rc.Niche,
		})
	}

	s.reports.Set(key, report)
	return report
}

// persist saves history best effort. Losing a record is acceptable; failing
// the consultation over it is not.
func (s *Service) persist(ctx context.Context, rec *schemas.ConsultationRecord) {
	if err := s.history.SaveConsultation(ctx, rec); err != nil {
		s.logger.Warn("consultation history write failed",
			zap.String("consultation_id", rec.ID),
			zap.Error(err))
	}
}

func goalStrings(g schemas.Goals) []string {
	var out []string
	if g.TargetFollowers > 0 {
		out = append(out, "reach "+strconv.Itoa(g.TargetFollowers)+" followers")
	}
	if g.TargetRevenue > 0 {
		out = append(out, "earn $"+strconv.Itoa(g.TargetRevenue)+" per month")
	}
	if g.BecomeInfluencer {
		out = append(out, "become an influencer")
	}
	if g.FinancialIndependence {
		out = append(out, "reach financial independence")
	}
	return out
}
