// Package handler provides HTTP handlers for all API endpoints.
// Handlers work against the in-memory session store and the collaborator
// clients; catalog responses are cached with ETags, session state is not.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pitchside/dreamteam/internal/analysis"
	"github.com/pitchside/dreamteam/internal/api/respond"
	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/config"
	"github.com/pitchside/dreamteam/internal/external"
	"github.com/pitchside/dreamteam/internal/players"
	"github.com/pitchside/dreamteam/internal/roster"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	cfg       *config.Config
	cache     *cache.Cache
	sessions  *roster.Store
	catalog   *players.Catalog
	portraits *external.WikipediaService
	generator *external.OpenRouterService
	analyzer  *analysis.Orchestrator
}

// New creates a Handler with shared dependencies.
func New(
	cfg *config.Config,
	c *cache.Cache,
	sessions *roster.Store,
	catalog *players.Catalog,
	portraits *external.WikipediaService,
	generator *external.OpenRouterService,
) *Handler {
	return &Handler{
		cfg:       cfg,
		cache:     c,
		sessions:  sessions,
		catalog:   catalog,
		portraits: portraits,
		generator: generator,
		analyzer:  analysis.New(generator, slog.Default()),
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and feature list.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Dream Team API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"features": []string{
			"formation_layouts",
			"session_rosters",
			"wikipedia_portraits",
			"llm_tactical_analysis",
			"etag_support",
			"prometheus_metrics",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns health status, live session count, and collaborator client status.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"sessions":  h.sessions.Count(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": map[string]interface{}{
			"wikipedia":  h.portraits.Status(),
			"openrouter": h.generator.Status(),
		},
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, hit/miss counts).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
