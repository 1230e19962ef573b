// Package mcpserver exposes the consultation pipeline as MCP tools over
// stdio, so desktop agents can drive Luna directly.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/consult"
	"github.com/luna-ai/luna/pkg/schemas"
)

// MCPServer wraps the consultation service behind MCP tools.
type MCPServer struct {
	svc    *consult.Service
	logger *zap.Logger
	mcp    *server.MCPServer
}

// New builds the MCP server and registers the Luna tools.
func New(svc *consult.Service, logger *zap.Logger) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MCPServer{
		svc:    svc,
		logger: logger,
		mcp: server.NewMCPServer(
			"luna-marketing-assistant",
			consult.Version,
			server.WithToolCapabilities(false),
		),
	}

	s.mcp.AddTool(mcp.NewTool("luna_consultation",
		mcp.WithDescription("Run a full marketing consultation for a creator: niche analysis, market research and growth recommendations."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The creator's question or goal in their own words"),
		),
		mcp.WithString("user_id",
			mcp.Description("Stable identifier for consultation history"),
		),
	), s.handleConsultation)

	s.mcp.AddTool(mcp.NewTool("luna_strategy",
		mcp.WithDescription("Generate a structured growth strategy for a known niche: content plan, engagement limits and projections."),
		mcp.WithString("niche",
			mcp.Required(),
			mcp.Description("Content niche, e.g. fitness or travel"),
		),
		mcp.WithNumber("current_followers",
			mcp.Description("Current follower count"),
		),
		mcp.WithString("target_growth",
			mcp.Description("Growth target, e.g. '10k followers'"),
		),
		mcp.WithString("timeline",
			mcp.Description("Target timeline, e.g. '90 days'"),
		),
		mcp.WithString("user_id",
			mcp.Description("Stable identifier for history"),
		),
	), s.handleStrategy)

	s.mcp.AddTool(mcp.NewTool("luna_system_status",
		mcp.WithDescription("Report Luna's health and which research sources are active."),
	), s.handleStatus)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("mcp server serving on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *MCPServer) handleConsultation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.svc.Consult(ctx, &schemas.ConsultationRequest{
		Query:  query,
		UserID: req.GetString("user_id", "anonymous"),
	})
	if err != nil {
		s.logger.Warn("mcp consultation failed", zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *MCPServer) handleStrategy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	niche, err := req.RequireString("niche")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	strategy, err := s.svc.GenerateStrategy(ctx, &schemas.StrategyRequest{
		Niche:            niche,
		CurrentFollowers: int(req.GetFloat("current_followers", 0)),
		TargetGrowth:     req.GetString("target_growth", ""),
		Timeline:         req.GetString("timeline", "90 days"),
		UserID:           req.GetString("user_id", "anonymous"),
	})
	if err != nil {
		s.logger.Warn("mcp strategy failed", zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(strategy)
}

func (s *MCPServer) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Status())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
