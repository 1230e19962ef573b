// Package config holds the process-wide configuration for Luna.
//
// The configuration is read from the environment exactly once at startup and
// passed explicitly to every component. Business logic never reads the
// environment on its own; the capability probe and the research aggregator
// only ever see this struct, so tests can construct two different
// configurations in the same process.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the immutable process configuration. Credential values are
// opaque secrets: they are passed through to clients and never inspected
// beyond a presence check.
type Config struct {
	// HTTP API
	HTTPAddr string

	// Logging
	LogLevel string

	// Premium research provider (optional; absence disables the source)
	ParallelAPIKey  string
	ParallelBaseURL string

	// Scraping/automation collaborator for competitor and trend data
	ScraperBaseURL string

	// LLM providers
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OllamaBaseURL     string
	OllamaModel       string

	// Persistence: Firestore when a project is configured, otherwise a local
	// SQLite file, otherwise in-memory.
	GoogleCloudProject string
	SQLitePath         string

	// Analytics event publishing (optional)
	AnalyticsTopic string

	// Research round tuning
	SourceTimeout time.Duration
	RoundTimeout  time.Duration // 0 disables the outer bound

	// Legacy behavior: substitute a simulated payload when the premium
	// source errors instead of surfacing the failure.
	PremiumFallbackOnError bool

	// Humanized activity preferences file (YAML); empty uses defaults.
	PreferencesFile string

	// HTTP rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Research report cache
	CacheTTL time.Duration
}

// FromEnv builds the configuration from the process environment.
func FromEnv() *Config {
	return &Config{
		HTTPAddr: getEnvOrDefault("LUNA_HTTP_ADDR", ":8001"),
		LogLevel: getEnvOrDefault("LUNA_LOG_LEVEL", "info"),

		ParallelAPIKey:  os.Getenv("PARALLEL_AI_API_KEY"),
		ParallelBaseURL: getEnvOrDefault("PARALLEL_AI_BASE_URL", "https://api.parallel.ai/v1"),

		ScraperBaseURL: getEnvOrDefault("LUNA_SCRAPER_URL", "http://localhost:8090"),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OllamaBaseURL:     os.Getenv("OLLAMA_BASE_URL"),
		OllamaModel:       getEnvOrDefault("OLLAMA_MODEL", "llama3.2"),

		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		SQLitePath:         os.Getenv("LUNA_SQLITE_PATH"),

		AnalyticsTopic: getEnvOrDefault("LUNA_ANALYTICS_TOPIC", "luna-consultations"),

		SourceTimeout: getDurationOrDefault("LUNA_SOURCE_TIMEOUT", 30*time.Second),
		RoundTimeout:  getDurationOrDefault("LUNA_ROUND_TIMEOUT", 0),

		PremiumFallbackOnError: getBoolOrDefault("LUNA_PREMIUM_FALLBACK", false),

		PreferencesFile: os.Getenv("LUNA_PREFERENCES_FILE"),

		RateLimitRPS:   getFloatOrDefault("LUNA_RATE_LIMIT_RPS", 5),
		RateLimitBurst: getIntOrDefault("LUNA_RATE_LIMIT_BURST", 10),

		CacheTTL: getDurationOrDefault("LUNA_CACHE_TTL", 15*time.Minute),
	}
}

// PremiumAvailable reports whether the premium research source is configured.
func (c *Config) PremiumAvailable() bool {
	return c.ParallelAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
