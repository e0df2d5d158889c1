package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/pitchside/dreamteam/internal/api/handler"
	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/config"
	"github.com/pitchside/dreamteam/internal/external"
	"github.com/pitchside/dreamteam/internal/metrics"
	"github.com/pitchside/dreamteam/internal/players"
	"github.com/pitchside/dreamteam/internal/roster"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(
	cfg *config.Config,
	appCache *cache.Cache,
	sessions *roster.Store,
	catalog *players.Catalog,
	portraits *external.WikipediaService,
	generator *external.OpenRouterService,
) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(cfg, appCache, sessions, catalog, portraits, generator)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Prometheus metrics
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})

	// Swagger UI over the embedded OpenAPI document.
	r.Get("/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(openAPISpec)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Formations
		r.Get("/formations", h.GetFormations)
		r.Get("/formations/{name}/layout", h.GetFormationLayout)

		// Sessions
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Put("/formation", h.SetSessionFormation)
			r.Put("/view", h.SetSessionView)
			r.Put("/slots/{slot}", h.SetSessionSlot)
			r.Get("/squad", h.GetSessionSquad)
			r.Post("/analysis", h.AnalyzeSession)
		})

		// Portraits
		r.Get("/portraits/{name}", h.GetPortrait)

		// Local player catalog
		r.Get("/players/local", h.ListLocalPlayers)
		r.Put("/players/local/{name}", h.UpsertLocalPlayer)
		r.Delete("/players/local/{name}", h.RemoveLocalPlayer)
	})

	return r
}
