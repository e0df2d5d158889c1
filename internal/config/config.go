// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api, cmd/dreamteam and cmd/mcp.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultPitchImage is the static pitch diagram clients draw markers on.
const defaultPitchImage = "https://upload.wikimedia.org/wikipedia/commons/4/4e/Football_pitch.svg"

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool
	LogLevel    string // debug, info, warn, error

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Text generation
	OpenRouterKey     string
	OpenRouterBaseURL string // empty = client default
	AnalysisModel     string // empty = client default
	AnalysisTimeout   time.Duration

	// Portrait lookup
	WikipediaBaseURL   string // empty = client default
	WikiRequestsPerMin int
	DefaultImageURL    string // empty = client default
	PitchImageURL      string

	// Cache
	CacheEnabled bool
	RedisURL     string // empty = in-memory portrait cache

	// Local player catalog seed file (optional)
	PlayersFile string
}

// Load reads configuration from environment variables with sensible
// defaults. Credential presence is enforced per surface through
// RequireOpenRouterKey, not here.
func Load() *Config {
	return &Config{
		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8501",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		OpenRouterKey:     envOr("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", ""),
		AnalysisModel:     envOr("OPENROUTER_MODEL", ""),
		AnalysisTimeout:   time.Duration(envInt("ANALYSIS_TIMEOUT_SECONDS", 20)) * time.Second,

		WikipediaBaseURL:   envOr("WIKIPEDIA_BASE_URL", ""),
		WikiRequestsPerMin: envInt("WIKI_REQUESTS_PER_MINUTE", 30),
		DefaultImageURL:    envOr("DEFAULT_IMAGE_URL", ""),
		PitchImageURL:      envOr("PITCH_IMAGE_URL", defaultPitchImage),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		RedisURL:     envOr("REDIS_URL", ""),

		PlayersFile: envOr("PLAYERS_FILE", ""),
	}
}

// RequireOpenRouterKey errors when the analysis credential is missing.
// Surfaces that generate text treat this as fatal at startup.
func (c *Config) RequireOpenRouterKey() error {
	if c.OpenRouterKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY must be set")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SlogLevel maps the configured level name onto slog's scale. Unrecognized
// values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
