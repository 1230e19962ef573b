// Package llm provides chat-completion clients for the consultation
// pipeline. OpenRouter is the hosted default; Ollama serves local
// development. Model selection is routed by task type so cheap models handle
// classification while stronger ones handle strategy synthesis.
package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/config"
	"github.com/luna-ai/luna/pkg/errkind"
)

// TaskType routes a completion to an appropriate model.
type TaskType string

const (
	TaskGeneral        TaskType = "general"
	TaskClassification TaskType = "classification"
	TaskAnalysis       TaskType = "analysis"
	TaskSynthesis      TaskType = "synthesis"
	TaskStrategy       TaskType = "strategy"
	TaskResearch       TaskType = "research"
)

// Client produces a completion for a prompt.
type Client interface {
	Complete(ctx context.Context, task TaskType, prompt string) (string, error)
}

// NewFromConfig picks a backend from configuration: OpenRouter when a key is
// configured, otherwise Ollama when a base URL is set. Returns nil with no
// error when neither backend is configured; callers treat a nil client as
// "heuristics only".
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (Client, error) {
	switch {
	case cfg.OpenRouterAPIKey != "":
		return NewOpenRouterClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, WithOpenRouterLogger(logger))
	case cfg.OllamaBaseURL != "":
		return NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, WithOllamaLogger(logger))
	default:
		return nil, nil
	}
}

func validatePrompt(prompt string) error {
	if prompt == "" {
		return errkind.New(errkind.Validation, errkind.CodeMissingRequired, "prompt is required")
	}
	return nil
}
