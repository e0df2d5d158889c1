package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so host environments cannot
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"API_HOST", "API_PORT", "PORT", "ENVIRONMENT", "DEBUG", "LOG_LEVEL",
		"CORS_ALLOW_ORIGINS",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
		"OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "OPENROUTER_MODEL",
		"ANALYSIS_TIMEOUT_SECONDS",
		"WIKIPEDIA_BASE_URL", "WIKI_REQUESTS_PER_MINUTE",
		"DEFAULT_IMAGE_URL", "PITCH_IMAGE_URL",
		"CACHE_ENABLED", "REDIS_URL", "PLAYERS_FILE",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.APIHost)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.Debug)
	assert.Equal(t, []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:8501",
	}, cfg.CORSAllowOrigins)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Empty(t, cfg.OpenRouterKey)
	assert.Empty(t, cfg.AnalysisModel)
	assert.Equal(t, 20*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 30, cfg.WikiRequestsPerMin)
	assert.Contains(t, cfg.PitchImageURL, "Football_pitch.svg")
	assert.True(t, cfg.CacheEnabled)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DEBUG", "true")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet")
	t.Setenv("ANALYSIS_TIMEOUT_SECONDS", "45")
	t.Setenv("WIKI_REQUESTS_PER_MINUTE", "10")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg := Load()

	assert.Equal(t, "127.0.0.1", cfg.APIHost)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Debug)
	assert.Equal(t, "sk-or-test", cfg.OpenRouterKey)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", cfg.AnalysisModel)
	assert.Equal(t, 45*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 10, cfg.WikiRequestsPerMin)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestSlogLevel(t *testing.T) {
	clearEnv(t)

	assert.Equal(t, slog.LevelInfo, Load().SlogLevel())

	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, Load().SlogLevel())

	t.Setenv("LOG_LEVEL", "WARN")
	assert.Equal(t, slog.LevelWarn, Load().SlogLevel())

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, slog.LevelError, Load().SlogLevel())

	t.Setenv("LOG_LEVEL", "verbose")
	assert.Equal(t, slog.LevelInfo, Load().SlogLevel())
}

func TestLoadPortFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3333")

	cfg := Load()
	assert.Equal(t, 3333, cfg.APIPort)

	// API_PORT takes precedence over the generic PORT.
	t.Setenv("API_PORT", "4444")
	cfg = Load()
	assert.Equal(t, 4444, cfg.APIPort)
}

func TestRequireOpenRouterKey(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	err := cfg.RequireOpenRouterKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")

	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	cfg = Load()
	assert.NoError(t, cfg.RequireOpenRouterKey())
}

func TestEnvListParsing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example.com, https://b.example.com ,,")

	cfg := Load()
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowOrigins)
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_PORT", "not-a-number")
	t.Setenv("DEBUG", "maybe")
	t.Setenv("RATE_LIMIT_ENABLED", "1")

	cfg := Load()
	assert.Equal(t, 8000, cfg.APIPort)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.RateLimitEnabled)
}
