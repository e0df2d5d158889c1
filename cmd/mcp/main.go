// Command mcp exposes the dream team core as MCP tools over streamable
// HTTP: formation catalog, pitch layouts, portrait resolution, and roster
// analysis.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pitchside/dreamteam/internal/analysis"
	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/config"
	"github.com/pitchside/dreamteam/internal/external"
	"github.com/pitchside/dreamteam/internal/formation"
	"github.com/pitchside/dreamteam/internal/players"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

type ListFormationsArgs struct{}

type FormationLayoutArgs struct {
	Formation string `json:"formation" jsonschema:"Formation name (4-3-3, 4-4-2, 3-5-2, 3-4-3)"`
}

type PlayerPortraitArgs struct {
	Name string `json:"name" jsonschema:"Player full name (required)"`
}

type AnalyzeTeamArgs struct {
	Formation string            `json:"formation" jsonschema:"Formation name (required)"`
	Players   map[string]string `json:"players" jsonschema:"Slot-to-name map covering every slot, e.g. {\"GK1\": \"Alisson\"}"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func main() {
	var (
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		mcpPath     = flag.String("path", "/mcp", "HTTP path for MCP endpoint")
		requireAuth = flag.Bool("require-auth", true, "require API key auth via DREAMTEAM_MCP_API_KEY")
		authHeader  = flag.String("auth-header", "X-API-Key", "HTTP header to read API key from")
	)
	flag.Parse()

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg := config.Load()
	if err := cfg.RequireOpenRouterKey(); err != nil {
		logger.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	// Collaborator wiring, shared with the API server.
	catalog := players.NewCatalog()
	if cfg.PlayersFile != "" {
		if err := catalog.LoadFile(cfg.PlayersFile); err != nil {
			logger.Warn("Failed to load local players", "file", cfg.PlayersFile, "error", err)
		}
	}
	portraitStore := cache.NewPortraitStore(cfg.RedisURL, cache.New(cfg.CacheEnabled), logger)
	portraits := external.NewWikipediaService(external.WikipediaConfig{
		BaseURL:           cfg.WikipediaBaseURL,
		DefaultImageURL:   cfg.DefaultImageURL,
		RequestsPerMinute: cfg.WikiRequestsPerMin,
	}, catalog, portraitStore, logger)
	generator := external.NewOpenRouterService(external.OpenRouterConfig{
		BaseURL: cfg.OpenRouterBaseURL,
		APIKey:  cfg.OpenRouterKey,
		Model:   cfg.AnalysisModel,
		Timeout: cfg.AnalysisTimeout,
	}, logger)
	orch := analysis.New(generator, logger)

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "dreamteam-mcp",
			Version: "1.0.0",
		},
		nil,
	)

	registry := make([]toolInfo, 0, 4)

	addTool(server, &registry, &mcp.Tool{
		Name:        "list_formations",
		Description: "List the built-in soccer formations with positional lines and slot keys",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListFormationsArgs) (*mcp.CallToolResult, any, error) {
		type summary struct {
			Name      string           `json:"name"`
			SquadSize int              `json:"squad_size"`
			Lines     []formation.Line `json:"lines"`
			Slots     []string         `json:"slots"`
		}
		all := formation.All()
		out := make([]summary, len(all))
		for i, f := range all {
			out[i] = summary{Name: f.Name, SquadSize: f.SquadSize(), Lines: f.Lines, Slots: f.Slots()}
		}
		b, err := json.MarshalIndent(map[string]any{"formations": out}, "", "  ")
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSONBytes(b), nil, nil
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "formation_layout",
		Description: "Pitch coordinates (percentage offsets from top-left) for every slot of a formation",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FormationLayoutArgs) (*mcp.CallToolResult, any, error) {
		f, ok := formation.Lookup(args.Formation)
		if !ok {
			return toolError(fmt.Errorf("unknown formation %q (available: %s)",
				args.Formation, strings.Join(formation.Names(), ", "))), nil, nil
		}
		resolved := formation.Layout(f.Name)
		layout := make(map[string]formation.Coordinate, f.SquadSize())
		for _, slot := range f.Slots() {
			layout[slot] = formation.CoordinateFor(resolved, slot)
		}
		b, err := json.MarshalIndent(map[string]any{
			"formation":  f.Name,
			"squad_size": f.SquadSize(),
			"layout":     layout,
		}, "", "  ")
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSONBytes(b), nil, nil
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_portrait",
		Description: "Resolve a portrait thumbnail URL for a player name (Wikipedia lookup with default-image fallback)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerPortraitArgs) (*mcp.CallToolResult, any, error) {
		name := strings.TrimSpace(args.Name)
		if name == "" {
			return toolError(fmt.Errorf("name is required")), nil, nil
		}
		url := portraits.PortraitURL(ctx, name)
		b, err := json.MarshalIndent(map[string]any{
			"name":         name,
			"portrait_url": url,
			"default":      url == portraits.DefaultImageURL(),
		}, "", "  ")
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSONBytes(b), nil, nil
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "analyze_team",
		Description: "Generate a tactical analysis (strengths, weaknesses, suggestions) for a fully named roster",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeTeamArgs) (*mcp.CallToolResult, any, error) {
		if args.Formation == "" {
			return toolError(fmt.Errorf("formation is required")), nil, nil
		}
		res := orch.Analyze(ctx, args.Formation, args.Players)
		if !res.OK() {
			return toolError(errors.New(res.Failure.Message)), nil, nil
		}
		return toolText(res.Markdown), nil, nil
	})

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	apiKey := strings.TrimSpace(os.Getenv("DREAMTEAM_MCP_API_KEY"))
	if *requireAuth && apiKey == "" {
		logger.Error("DREAMTEAM_MCP_API_KEY is required (set env var or run with --require-auth=false)")
		os.Exit(1)
	}

	withAuth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(*authHeader))
			if key == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					key = strings.TrimSpace(authz[7:])
				}
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next(w, r)
		}
	}

	http.HandleFunc("/health", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	http.HandleFunc("/tools", withAuth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.MarshalIndent(map[string]any{"tools": registry}, "", "  ")
		w.Write(b)
	}))

	http.HandleFunc(*mcpPath, withAuth(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))

	logger.Info("MCP HTTP server listening", "addr", *addr, "path", *mcpPath)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func toolJSONBytes(res []byte) *mcp.CallToolResult {
	return toolText(string(res))
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
