package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/config"
	"github.com/pitchside/dreamteam/internal/external"
	"github.com/pitchside/dreamteam/internal/formation"
	"github.com/pitchside/dreamteam/internal/players"
	"github.com/pitchside/dreamteam/internal/roster"
)

const (
	testDefaultPortrait = "https://img.example/default.png"
	testWikiPortrait    = "https://img.example/wiki-portrait.png"
	testPitchImage      = "https://img.example/pitch.svg"
	testAnalysis        = "## Strengths 💪\n- Solid spine\n\n## Weaknesses 🚧\n- Narrow wings\n\n## Tactical Suggestions 🧠\n- Press higher"
)

// stubWiki answers both MediaWiki actions with a fixed portrait.
func stubWiki(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("list") == "search" {
			fmt.Fprint(w, `{"query":{"search":[{"title":"Stub Player"}]}}`)
			return
		}
		fmt.Fprintf(w, `{"query":{"pages":{"1":{"thumbnail":{"source":%q}}}}}`, testWikiPortrait)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// stubOpenRouter returns a canned chat completion, or an error status.
func stubOpenRouter(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, "upstream unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": testAnalysis}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, wikiURL, openRouterURL string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		CORSAllowOrigins: []string{"http://localhost:3000"},
		RateLimitEnabled: false,
		CacheEnabled:     true,
		PitchImageURL:    testPitchImage,
	}
	appCache := cache.New(true)
	catalog := players.NewCatalog()
	portraits := external.NewWikipediaService(external.WikipediaConfig{
		BaseURL:           wikiURL,
		DefaultImageURL:   testDefaultPortrait,
		RequestsPerMinute: 6000,
	}, catalog, cache.NewMemoryPortraits(appCache), logger)
	generator := external.NewOpenRouterService(external.OpenRouterConfig{
		BaseURL: openRouterURL,
		APIKey:  "sk-or-test",
		Timeout: 5 * time.Second,
	}, logger)
	return NewRouter(cfg, appCache, roster.NewStore(), catalog, portraits, generator)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func createSession(t *testing.T, router http.Handler, formationName string) string {
	t.Helper()
	var body interface{}
	if formationName != "" {
		body = map[string]string{"formation": formationName}
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, ok := decodeBody(t, rec)["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func TestRootAndHealth(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	rec := doJSON(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Dream Team API", body["name"])
	assert.Equal(t, "running", body["status"])

	rec = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	services, ok := body["services"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, services, "wikipedia")
	assert.Contains(t, services, "openrouter")

	rec = doJSON(t, router, http.MethodGet, "/health/cache", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "cache")
}

func TestFormationCatalog(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/formations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 4, body["count"])
	assert.Equal(t, testPitchImage, body["pitch_image_url"])
	formations, ok := body["formations"].([]interface{})
	require.True(t, ok)
	require.Len(t, formations, 4)
	first, ok := formations[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "4-3-3", first["name"])
	assert.EqualValues(t, 11, first["squad_size"])

	// Second request is a cache hit with the same ETag.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/formations", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	// Conditional request gets a 304.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/formations", nil)
	req.Header.Set("If-None-Match", etag)
	cond := httptest.NewRecorder()
	router.ServeHTTP(cond, req)
	assert.Equal(t, http.StatusNotModified, cond.Code)
}

func TestFormationLayout(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/formations/4-4-2/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "4-4-2", body["formation"])
	layout, ok := body["layout"].(map[string]interface{})
	require.True(t, ok)
	require.Len(t, layout, 11)

	gk, ok := layout["GK1"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 15, gk["top"])
	assert.EqualValues(t, 50, gk["left"])

	att2, ok := layout["ATT2"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 75, att2["top"])
	assert.EqualValues(t, 60, att2["left"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/formations/5-5-0/layout", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_FORMATION")
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	// Default formation applies when the body is empty.
	id := createSession(t, router, "")
	rec := doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "4-3-3", body["formation"])
	assert.Equal(t, "pitch", body["view"])
	assert.EqualValues(t, 11, body["required"])
	assert.EqualValues(t, 0, body["filled"])

	// Fill the keeper slot.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/slots/GK1", map[string]string{"name": "Alisson"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["filled"])

	// A slot outside the current formation is rejected.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/slots/MID5", map[string]string{"name": "Nobody"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_SLOT")

	// View toggle.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/view", map[string]string{"view": "list"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "list", decodeBody(t, rec)["view"])

	rec = doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/view", map[string]string{"view": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Formation switch keeps the entered keeper.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/formation", map[string]string{"formation": "3-5-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "3-5-2", body["formation"])
	playersMap, ok := body["players"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Alisson", playersMap["GK1"])
	assert.NotContains(t, playersMap, "DEF4", "3-5-2 has only three defenders")

	// Delete, then the session is gone.
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown formation on create.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions", map[string]string{"formation": "9-0-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionSquadMarkers(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)
	id := createSession(t, router, "4-3-3")

	rec := doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/slots/GK1", map[string]string{"name": "Alisson"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+id+"/squad", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, testPitchImage, body["pitch_image_url"])
	assert.EqualValues(t, 11, body["required"])
	assert.EqualValues(t, 1, body["filled"])

	markers, ok := body["markers"].([]interface{})
	require.True(t, ok)
	require.Len(t, markers, 11)

	gk, ok := markers[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "GK1", gk["slot"])
	assert.Equal(t, "Alisson", gk["display_name"])
	assert.Equal(t, testWikiPortrait, gk["portrait_url"])
	coord, ok := gk["coordinate"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 15, coord["top"])
	assert.EqualValues(t, 50, coord["left"])

	// Empty slots fall back to the slot key and the default image.
	def1, ok := markers[1].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "DEF1", def1["slot"])
	assert.Equal(t, "DEF1", def1["display_name"])
	assert.Equal(t, testDefaultPortrait, def1["portrait_url"])
}

func TestAnalyzeSession(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)
	id := createSession(t, router, "4-3-3")

	rec := doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/slots/GK1", map[string]string{"name": "Alisson"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Incomplete roster: 422 with both counts, no generation.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/analysis", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please fill all 11 player slots. Only 1 filled.")

	// Complete roster: 200 with the generated Markdown.
	f, ok := formation.Lookup("4-3-3")
	require.True(t, ok)
	for i, slot := range f.Slots() {
		rec = doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/slots/"+slot,
			map[string]string{"name": fmt.Sprintf("Player %d", i+1)})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, testAnalysis, body["markdown"])
	assert.Equal(t, "4-3-3", body["formation"])
	assert.Equal(t, external.DefaultModel, body["model"])

	// Session not found.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/missing/analysis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeSessionGenerationFailure(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusInternalServerError).URL)
	id := createSession(t, router, "4-4-2")

	f, ok := formation.Lookup("4-4-2")
	require.True(t, ok)
	for i, slot := range f.Slots() {
		rec := doJSON(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/slots/"+slot,
			map[string]string{"name": fmt.Sprintf("Player %d", i+1)})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/analysis", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "GENERATION_FAILED")
	assert.Contains(t, rec.Body.String(), "LLM analysis failed")
}

func TestPortraitEndpoint(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/portraits/Lionel%20Messi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Lionel Messi", body["name"])
	assert.Equal(t, testWikiPortrait, body["portrait_url"])
	assert.Equal(t, false, body["default"])
}

func TestLocalPlayersCRUD(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/players/local/Rivaldo",
		map[string]string{"image_url": "https://img.example/rivaldo.png", "notes": "left foot"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rivaldo", decodeBody(t, rec)["name"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/players/local", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["count"])

	// The override beats the Wikipedia lookup.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/portraits/Rivaldo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://img.example/rivaldo.png", decodeBody(t, rec)["portrait_url"])

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/players/local/Rivaldo", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/players/local/Rivaldo", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	// Generate at least one recorded request first.
	doJSON(t, router, http.MethodGet, "/", nil)

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dreamteam_http_requests_total")
}

func TestDocsEndpoint(t *testing.T) {
	router := newTestRouter(t, stubWiki(t).URL, stubOpenRouter(t, http.StatusOK).URL)

	rec := doJSON(t, router, http.MethodGet, "/docs/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "paths")
}
