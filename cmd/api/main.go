// Command api is the Dream Team API server.
//
// Usage:
//
//	dreamteam-api
//	API_PORT=8080 dreamteam-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/pitchside/dreamteam/internal/api"
	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/config"
	"github.com/pitchside/dreamteam/internal/external"
	"github.com/pitchside/dreamteam/internal/players"
	"github.com/pitchside/dreamteam/internal/roster"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if err := cfg.RequireOpenRouterKey(); err != nil {
		logger.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Initialize cache and session store
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	sessions := roster.NewStore()

	// Local player catalog, optionally seeded from a JSON file
	catalog := players.NewCatalog()
	if cfg.PlayersFile != "" {
		if err := catalog.LoadFile(cfg.PlayersFile); err != nil {
			logger.Error("Failed to load local players", "file", cfg.PlayersFile, "error", err)
			os.Exit(1)
		}
		logger.Info("Local players loaded", "file", cfg.PlayersFile, "count", catalog.Count())
	}

	// Collaborator clients
	portraitStore := cache.NewPortraitStore(cfg.RedisURL, appCache, logger)
	portraits := external.NewWikipediaService(external.WikipediaConfig{
		BaseURL:           cfg.WikipediaBaseURL,
		DefaultImageURL:   cfg.DefaultImageURL,
		RequestsPerMinute: cfg.WikiRequestsPerMin,
	}, catalog, portraitStore, logger)
	logger.Info("Portrait client ready", "cache_backend", portraitStore.Backend())

	generator := external.NewOpenRouterService(external.OpenRouterConfig{
		BaseURL: cfg.OpenRouterBaseURL,
		APIKey:  cfg.OpenRouterKey,
		Model:   cfg.AnalysisModel,
		Timeout: cfg.AnalysisTimeout,
	}, logger)
	logger.Info("Analysis client ready", "model", generator.Model())

	// Create router
	router := api.NewRouter(cfg, appCache, sessions, catalog, portraits, generator)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Dream Team API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
