// Command dreamteam is the dream team formation and analysis CLI.
//
// Usage:
//
//	dreamteam formations
//	dreamteam layout --formation 4-3-3
//	dreamteam portrait "Lionel Messi"
//	dreamteam analyze --formation 4-3-3 --player GK1=Alisson --player DEF1=...
//	dreamteam analyze --roster squad.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pitchside/dreamteam/internal/analysis"
	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/config"
	"github.com/pitchside/dreamteam/internal/external"
	"github.com/pitchside/dreamteam/internal/formation"
	"github.com/pitchside/dreamteam/internal/players"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "dreamteam",
		Short: "Dream team formation and analysis CLI",
	}

	root.AddCommand(formationsCmd())
	root.AddCommand(layoutCmd())
	root.AddCommand(portraitCmd())
	root.AddCommand(analyzeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// formations command
// --------------------------------------------------------------------------

func formationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formations",
		Short: "List the built-in formations",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%-8s %-28s %s\n", "NAME", "LINES", "SQUAD")
			for _, f := range formation.All() {
				fmt.Printf("%-8s %-28s %d\n", f.Name, lineString(f), f.SquadSize())
			}
			return nil
		},
	}
}

func lineString(f formation.Formation) string {
	parts := make([]string, len(f.Lines))
	for i, line := range f.Lines {
		parts[i] = fmt.Sprintf("%s:%d", line.Role, line.Count)
	}
	return strings.Join(parts, " ")
}

// --------------------------------------------------------------------------
// layout command
// --------------------------------------------------------------------------

func layoutCmd() *cobra.Command {
	var (
		formationName string
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print pitch coordinates for a formation's slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := formation.Lookup(formationName)
			if !ok {
				return fmt.Errorf("unknown formation %q (available: %s)",
					formationName, strings.Join(formation.Names(), ", "))
			}

			resolved := formation.Layout(f.Name)
			if asJSON {
				full := make(map[string]formation.Coordinate, f.SquadSize())
				for _, slot := range f.Slots() {
					full[slot] = formation.CoordinateFor(resolved, slot)
				}
				raw, err := json.MarshalIndent(full, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(raw))
				return nil
			}

			fmt.Printf("Formation %s (%d slots)\n", f.Name, f.SquadSize())
			for _, slot := range f.Slots() {
				c := formation.CoordinateFor(resolved, slot)
				fmt.Printf("  %-6s top %5.1f  left %5.1f\n", slot, c.Top, c.Left)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formationName, "formation", "4-3-3", "Formation name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the layout as JSON")
	return cmd
}

// --------------------------------------------------------------------------
// portrait command
// --------------------------------------------------------------------------

func portraitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portrait NAME",
		Short: "Resolve the portrait URL for a player name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithConfig(func(ctx context.Context, cfg *config.Config) error {
				svc := newPortraitService(cfg)
				url := svc.PortraitURL(ctx, args[0])
				if url == svc.DefaultImageURL() {
					logger.Info("No portrait found, using default image", "player", args[0])
				}
				fmt.Println(url)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// analyze command
// --------------------------------------------------------------------------

// rosterFile is the on-disk shape accepted by --roster.
type rosterFile struct {
	Formation string            `json:"formation"`
	Players   map[string]string `json:"players"`
}

func analyzeCmd() *cobra.Command {
	var (
		formationName string
		playerFlags   []string
		rosterPath    string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate a tactical analysis for a full roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithConfig(func(ctx context.Context, cfg *config.Config) error {
				if err := cfg.RequireOpenRouterKey(); err != nil {
					return err
				}

				squad := make(map[string]string)
				if rosterPath != "" {
					rf, err := loadRosterFile(rosterPath)
					if err != nil {
						return err
					}
					if rf.Formation != "" && !cmd.Flags().Changed("formation") {
						formationName = rf.Formation
					}
					for slot, name := range rf.Players {
						squad[slot] = name
					}
				}
				for _, kv := range playerFlags {
					slot, name, ok := strings.Cut(kv, "=")
					if !ok {
						return fmt.Errorf("invalid --player value %q, expected SLOT=NAME", kv)
					}
					squad[strings.TrimSpace(slot)] = strings.TrimSpace(name)
				}

				generator := external.NewOpenRouterService(external.OpenRouterConfig{
					BaseURL: cfg.OpenRouterBaseURL,
					APIKey:  cfg.OpenRouterKey,
					Model:   cfg.AnalysisModel,
					Timeout: cfg.AnalysisTimeout,
				}, logger)
				orch := analysis.New(generator, logger)

				start := time.Now()
				res := orch.Analyze(ctx, formationName, squad)
				if !res.OK() {
					return errors.New(res.Failure.Message)
				}
				logger.Info("Analysis complete",
					"formation", formationName,
					"model", generator.Model(),
					"duration", time.Since(start).Round(time.Millisecond))
				fmt.Println(res.Markdown)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&formationName, "formation", "4-3-3", "Formation name")
	cmd.Flags().StringArrayVar(&playerFlags, "player", nil, "Slot assignment SLOT=NAME (repeatable)")
	cmd.Flags().StringVar(&rosterPath, "roster", "", "JSON roster file with formation and players")
	return cmd
}

func loadRosterFile(path string) (*rosterFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	var rf rosterFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse roster file %s: %w", path, err)
	}
	return &rf, nil
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWithConfig handles config loading and context cancellation.
func runWithConfig(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return fn(ctx, config.Load())
}

// newPortraitService wires the portrait client the same way the API server
// does: local catalog overrides first, then the configured cache backend.
func newPortraitService(cfg *config.Config) *external.WikipediaService {
	catalog := players.NewCatalog()
	if cfg.PlayersFile != "" {
		if err := catalog.LoadFile(cfg.PlayersFile); err != nil {
			logger.Warn("Failed to load local players", "file", cfg.PlayersFile, "error", err)
		}
	}
	store := cache.NewPortraitStore(cfg.RedisURL, cache.New(cfg.CacheEnabled), logger)
	return external.NewWikipediaService(external.WikipediaConfig{
		BaseURL:           cfg.WikipediaBaseURL,
		DefaultImageURL:   cfg.DefaultImageURL,
		RequestsPerMinute: cfg.WikiRequestsPerMin,
	}, catalog, store, logger)
}
