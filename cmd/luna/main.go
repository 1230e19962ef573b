// Luna is a marketing assistant for social creators: it analyzes a
// creator's goals, fans research out across market, competitor and trend
// sources, and synthesizes growth strategies. It serves HTTP and MCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/analytics"
	"github.com/luna-ai/luna/pkg/config"
	"github.com/luna-ai/luna/pkg/consult"
	"github.com/luna-ai/luna/pkg/llm"
	"github.com/luna-ai/luna/pkg/logging"
	"github.com/luna-ai/luna/pkg/mcpserver"
	"github.com/luna-ai/luna/pkg/parallelai"
	"github.com/luna-ai/luna/pkg/research"
	"github.com/luna-ai/luna/pkg/retry"
	"github.com/luna-ai/luna/pkg/scheduling"
	"github.com/luna-ai/luna/pkg/scraper"
	"github.com/luna-ai/luna/pkg/server"
	"github.com/luna-ai/luna/pkg/store"
)

func main() {
	root := &cobra.Command{
		Use:           "luna",
		Short:         "Luna marketing assistant for social creators",
		Version:       consult.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMCPCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "luna:", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the consultation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, cleanup, err := buildService(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(cfg.HTTPAddr, svc, logger, cfg.RateLimitRPS, cfg.RateLimitBurst)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				return srv.Shutdown(context.Background())
			}
		},
	}
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve Luna tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, cleanup, err := buildService(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return mcpserver.New(svc, logger).ServeStdio()
		},
	}
}

// buildService wires the consultation pipeline from configuration. The
// returned cleanup closes persistence and analytics.
func buildService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*consult.Service, func(), error) {
	history, err := store.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize consultation store: %w", err)
	}

	events, err := analytics.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		history.Close()
		return nil, nil, fmt.Errorf("initialize analytics publisher: %w", err)
	}

	cleanup := func() {
		if err := events.Close(); err != nil {
			logger.Warn("analytics close failed", zap.Error(err))
		}
		if err := history.Close(); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}

	llmClient, err := llm.NewFromConfig(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("initialize llm client: %w", err)
	}
	llmClient = llm.WithRetry(llmClient, retry.Fast(), logger)
	if llmClient == nil {
		logger.Info("no llm backend configured, running with heuristics only")
	}

	prefs, err := scheduling.Load(cfg.PreferencesFile)
	if err != nil {
		logger.Warn("preferences load failed, using defaults",
			zap.String("file", cfg.PreferencesFile), zap.Error(err))
	}

	aggregator, sources, err := buildResearch(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc := consult.NewService(consult.Deps{
		Config:     cfg,
		Logger:     logger,
		Analyzer:   consult.NewAnalyzer(llmClient, logger),
		Strategist: consult.NewStrategist(llmClient, logger, consult.WithPreferences(prefs)),
		Aggregator: aggregator,
		Sources:    sources,
		History:    history,
		Events:     events,
	})

	logger.Info("luna service ready",
		zap.Bool("premium_research", cfg.PremiumAvailable()),
		zap.Strings("sources", sources))
	return svc, cleanup, nil
}

// buildResearch probes the source roster against the configuration and
// binds each active descriptor to its concrete source.
func buildResearch(cfg *config.Config, logger *zap.Logger) (*research.Aggregator, []string, error) {
	var researcher research.DeepResearcher
	if cfg.PremiumAvailable() {
		client, err := parallelai.NewClient(cfg.ParallelBaseURL, cfg.ParallelAPIKey,
			parallelai.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("initialize premium research client: %w", err)
		}
		researcher = &retryingResearcher{inner: client, cfg: retry.Fast()}
	}

	var competitorIntel research.CompetitorIntel
	var trendIntel research.TrendIntel
	if cfg.ScraperBaseURL != "" {
		client, err := scraper.NewClient(cfg.ScraperBaseURL, scraper.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("initialize scraper client: %w", err)
		}
		competitorIntel, trendIntel = client, client
	}

	active := research.Probe(cfg, research.DefaultRoster())

	bind := func(d research.Descriptor) research.Source {
		switch d.Name {
		case research.SourceMarketResearch:
			return research.NewPremiumResearchSource(researcher, "comprehensive", cfg.PremiumFallbackOnError, logger)
		case research.SourceCompetitorAnalysis:
			return research.NewCompetitorAnalysisSource(competitorIntel, logger)
		default:
			return research.NewTrendAnalysisSource(trendIntel, logger)
		}
	}

	aggregator := research.FromRoster(logger, active, bind,
		research.WithSourceTimeout(cfg.SourceTimeout),
		research.WithRoundTimeout(cfg.RoundTimeout))

	names := make([]string, len(active))
	for i, d := range active {
		names[i] = d.Name
	}
	return aggregator, names, nil
}

// retryingResearcher retries transient premium research failures below the
// source boundary; the aggregator itself never retries.
type retryingResearcher struct {
	inner research.DeepResearcher
	cfg   retry.Config
}

func (r *retryingResearcher) Research(ctx context.Context, query, depth string) (string, error) {
	return retry.Do(ctx, func() (string, error) {
		return r.inner.Research(ctx, query, depth)
	}, r.cfg)
}
