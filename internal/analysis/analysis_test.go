package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/dreamteam/internal/formation"
)

type stubGenerator struct {
	calls      int
	lastPrompt string
	response   string
	err        error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	return s.response, s.err
}

// fullRoster names every slot of the formation.
func fullRoster(t *testing.T, name string) map[string]string {
	t.Helper()
	f, ok := formation.Lookup(name)
	require.True(t, ok)
	players := make(map[string]string)
	for i, slot := range f.Slots() {
		players[slot] = fmt.Sprintf("Player %d", i+1)
	}
	return players
}

func TestAnalyze_IncompleteRosterShortCircuits(t *testing.T) {
	gen := &stubGenerator{response: "unused"}
	orch := New(gen, nil)

	players := fullRoster(t, "4-3-3")
	players["MID2"] = ""
	players["ATT3"] = ""

	res := orch.Analyze(context.Background(), "4-3-3", players)
	require.False(t, res.OK())
	assert.Equal(t, CategoryValidation, res.Failure.Category)
	assert.Contains(t, res.Failure.Message, "11")
	assert.Contains(t, res.Failure.Message, "9")
	assert.Equal(t, 0, gen.calls, "no external call on validation failure")
}

func TestAnalyze_PromptContainsEverySlotLine(t *testing.T) {
	gen := &stubGenerator{response: "## Strengths 💪\n* pace"}
	orch := New(gen, nil)

	players := fullRoster(t, "4-4-2")
	res := orch.Analyze(context.Background(), "4-4-2", players)
	require.True(t, res.OK())
	require.Equal(t, 1, gen.calls)

	for slot, name := range players {
		assert.Contains(t, gen.lastPrompt, fmt.Sprintf("%s: %s", slot, name))
	}
	assert.Contains(t, gen.lastPrompt, "4-4-2 formation")
	assert.Contains(t, gen.lastPrompt, "## Strengths 💪")
	assert.Contains(t, gen.lastPrompt, "## Weaknesses 🚧")
	assert.Contains(t, gen.lastPrompt, "## Tactical Suggestions 🧠")
}

func TestAnalyze_SuccessPayloadUnchanged(t *testing.T) {
	const payload = "## Strengths 💪\n* press resistance\n\n## Weaknesses 🚧\n* aerials\n"
	gen := &stubGenerator{response: payload}
	orch := New(gen, nil)

	res := orch.Analyze(context.Background(), "4-3-3", fullRoster(t, "4-3-3"))
	require.True(t, res.OK())
	assert.Equal(t, payload, res.Markdown)
	assert.Nil(t, res.Failure)
}

func TestAnalyze_GenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("chat completion request: context deadline exceeded")}
	orch := New(gen, nil)

	res := orch.Analyze(context.Background(), "4-3-3", fullRoster(t, "4-3-3"))
	require.False(t, res.OK())
	assert.Equal(t, CategoryGeneration, res.Failure.Category)
	assert.Contains(t, res.Failure.Message, "deadline exceeded")
	assert.Empty(t, res.Markdown)
}

func TestAnalyze_UnknownFormation(t *testing.T) {
	gen := &stubGenerator{}
	orch := New(gen, nil)

	res := orch.Analyze(context.Background(), "7-7-7", map[string]string{})
	require.False(t, res.OK())
	assert.Equal(t, CategoryValidation, res.Failure.Category)
	assert.Contains(t, res.Failure.Message, "7-7-7")
	assert.Equal(t, 0, gen.calls)
}

func TestAnalyze_IgnoresStaleEntries(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	orch := New(gen, nil)

	// MID5 is not a 4-3-3 slot; it must count for nothing.
	players := map[string]string{"MID5": "Stale Player"}
	res := orch.Analyze(context.Background(), "4-3-3", players)
	require.False(t, res.OK())
	assert.Contains(t, res.Failure.Message, "Only 0 filled")

	players = fullRoster(t, "4-3-3")
	players["MID5"] = "Stale Player"
	res = orch.Analyze(context.Background(), "4-3-3", players)
	require.True(t, res.OK())
	assert.NotContains(t, gen.lastPrompt, "Stale Player")
}

func TestBuildPrompt_DeterministicOrder(t *testing.T) {
	f, ok := formation.Lookup("3-5-2")
	require.True(t, ok)

	players := fullRoster(t, "3-5-2")
	p1 := BuildPrompt(f, players)
	p2 := BuildPrompt(f, players)
	assert.Equal(t, p1, p2)

	// Roster lines appear in formation definition order.
	gkIdx := strings.Index(p1, "GK1:")
	defIdx := strings.Index(p1, "DEF1:")
	midIdx := strings.Index(p1, "MID1:")
	attIdx := strings.Index(p1, "ATT1:")
	assert.True(t, gkIdx < defIdx && defIdx < midIdx && midIdx < attIdx)
}

func TestBuildPrompt_NoPreambleInstruction(t *testing.T) {
	f, _ := formation.Lookup("4-3-3")
	prompt := BuildPrompt(f, fullRoster(t, "4-3-3"))
	assert.Contains(t, prompt, "Do not include any text before the first heading")
}
