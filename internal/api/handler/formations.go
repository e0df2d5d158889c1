package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pitchside/dreamteam/internal/api/respond"
	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/formation"
)

type formationSummary struct {
	Name      string           `json:"name"`
	SquadSize int              `json:"squad_size"`
	Lines     []formation.Line `json:"lines"`
	Slots     []string         `json:"slots"`
}

// GetFormations returns the built-in formation catalog.
// @Summary List formations
// @Description Returns every built-in formation with its positional lines and derived slot keys.
// @Tags formations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/formations [get]
func (h *Handler) GetFormations(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "formations:list"
	ttl := cache.TTLCatalog

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	all := formation.All()
	summaries := make([]formationSummary, len(all))
	for i, f := range all {
		summaries[i] = formationSummary{
			Name:      f.Name,
			SquadSize: f.SquadSize(),
			Lines:     f.Lines,
			Slots:     f.Slots(),
		}
	}
	raw, err := json.Marshal(map[string]interface{}{
		"formations":      summaries,
		"count":           len(summaries),
		"pitch_image_url": h.cfg.PitchImageURL,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODING_FAILED", "Failed to encode formation catalog")
		return
	}

	etag := h.cache.Set(cacheKey, raw, ttl)
	respond.WriteJSON(w, raw, etag, ttl, false)
}

// GetFormationLayout returns the slot-to-coordinate map for a formation.
// @Summary Get formation layout
// @Description Returns pitch coordinates (percentage offsets from top-left) for every slot of the named formation.
// @Tags formations
// @Produce json
// @Param name path string true "Formation name" Enums(4-3-3, 4-4-2, 3-5-2, 3-4-3)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/formations/{name}/layout [get]
func (h *Handler) GetFormationLayout(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, ok := formation.Lookup(name)
	if !ok {
		respond.WriteErrorDetail(w, http.StatusNotFound, "UNKNOWN_FORMATION",
			fmt.Sprintf("No formation named %q", name),
			"Available: "+strings.Join(formation.Names(), ", "))
		return
	}

	cacheKey := fmt.Sprintf("layout:%s", f.Name)
	ttl := cache.TTLCatalog

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	resolved := formation.Layout(f.Name)
	layout := make(map[string]formation.Coordinate, f.SquadSize())
	for _, slot := range f.Slots() {
		layout[slot] = formation.CoordinateFor(resolved, slot)
	}
	raw, err := json.Marshal(map[string]interface{}{
		"formation":       f.Name,
		"squad_size":      f.SquadSize(),
		"layout":          layout,
		"pitch_image_url": h.cfg.PitchImageURL,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODING_FAILED", "Failed to encode layout")
		return
	}

	etag := h.cache.Set(cacheKey, raw, ttl)
	respond.WriteJSON(w, raw, etag, ttl, false)
}
