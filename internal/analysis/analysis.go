// Package analysis turns a formation and roster into a tactical write-up
// through an external text generator, normalizing every failure into a
// displayable result.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pitchside/dreamteam/internal/formation"
)

// Failure categories carried by failed results.
const (
	CategoryValidation = "validation-failed"
	CategoryGeneration = "generation-failed"
)

// TextGenerator is the consumed text-generation interface.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Failure describes why an analysis produced no write-up.
type Failure struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Result is the displayable outcome of an analysis request: the Markdown
// write-up on success, a failure descriptor otherwise. Exactly one of the
// two fields is set.
type Result struct {
	Markdown string   `json:"markdown,omitempty"`
	Failure  *Failure `json:"failure,omitempty"`
}

// OK reports whether the result carries a write-up.
func (r Result) OK() bool { return r.Failure == nil }

// analysisPromptTemplate is the fixed prompt. The strict structure demand
// keeps the response renderable without post-processing.
const analysisPromptTemplate = `You are a professional football analyst and scout.
Analyze this team's tactical profile based on the %s formation.
Team Roster:
%s

Provide your analysis in the following strict Markdown structure. Do not include any text before the first heading:

## Strengths 💪
* [Sharp point about a key advantage]
* ...

## Weaknesses 🚧
* [Sharp point about a potential liability]
* ...

## Tactical Suggestions 🧠
* [Concrete suggestion for the coach]
* ...`

// BuildPrompt renders the analysis prompt for a formation and its roster.
// The roster block lists one "SLOT: name" line per slot, in the
// formation's definition order, so identical squads always produce an
// identical prompt.
func BuildPrompt(f formation.Formation, players map[string]string) string {
	lines := make([]string, 0, f.SquadSize())
	for _, slot := range f.Slots() {
		lines = append(lines, fmt.Sprintf("%s: %s", slot, players[slot]))
	}
	return fmt.Sprintf(analysisPromptTemplate, f.Name, strings.Join(lines, "\n"))
}

// Orchestrator validates rosters and dispatches analysis prompts.
type Orchestrator struct {
	gen    TextGenerator
	logger *slog.Logger
}

// New creates an orchestrator around a text generator.
func New(gen TextGenerator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gen: gen, logger: logger}
}

// Analyze produces a Result for the named formation and roster. It never
// returns a Go error: validation and generation failures come back as
// displayable results, and an incomplete roster short-circuits before any
// external call.
func (o *Orchestrator) Analyze(ctx context.Context, formationName string, players map[string]string) Result {
	f, ok := formation.Lookup(formationName)
	if !ok {
		return Result{Failure: &Failure{
			Category: CategoryValidation,
			Message:  fmt.Sprintf("Unknown formation %q.", formationName),
		}}
	}

	required := f.SquadSize()
	filled := 0
	for _, slot := range f.Slots() {
		if players[slot] != "" {
			filled++
		}
	}
	if filled < required {
		return Result{Failure: &Failure{
			Category: CategoryValidation,
			Message:  fmt.Sprintf("Please fill all %d player slots. Only %d filled.", required, filled),
		}}
	}

	text, err := o.gen.Generate(ctx, BuildPrompt(f, players))
	if err != nil {
		o.logger.Warn("Analysis generation failed", "formation", f.Name, "error", err)
		return Result{Failure: &Failure{
			Category: CategoryGeneration,
			Message:  fmt.Sprintf("LLM analysis failed: %s", err),
		}}
	}
	return Result{Markdown: text}
}
