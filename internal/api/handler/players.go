package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pitchside/dreamteam/internal/api/respond"
	"github.com/pitchside/dreamteam/internal/players"
)

// ListLocalPlayers returns the local player catalog.
// @Summary List local players
// @Description Returns every local catalog entry, sorted by name.
// @Tags players
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/players/local [get]
func (h *Handler) ListLocalPlayers(w http.ResponseWriter, r *http.Request) {
	list := h.catalog.List()
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"players": list,
		"count":   len(list),
	})
}

// UpsertLocalPlayer creates or replaces a local catalog entry.
// @Summary Upsert local player
// @Description Stores a local player with an optional portrait override and notes. An override takes precedence over Wikipedia lookups for that name.
// @Tags players
// @Accept json
// @Produce json
// @Param name path string true "Player name"
// @Param body body object true "{\"image_url\": \"https://...\", \"notes\": \"...\"}"
// @Success 200 {object} players.LocalPlayer
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/players/local/{name} [put]
func (h *Handler) UpsertLocalPlayer(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "Player name is required")
		return
	}

	var req struct {
		ImageURL string `json:"image_url"`
		Notes    string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	p := players.LocalPlayer{Name: name, ImageURL: req.ImageURL, Notes: req.Notes}
	if err := h.catalog.Upsert(p); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PLAYER", err.Error())
		return
	}

	// The override changes what this name resolves to; drop any cached URL.
	h.portraits.InvalidatePortrait(r.Context(), name)

	respond.WriteJSONObject(w, http.StatusOK, p)
}

// RemoveLocalPlayer deletes a local catalog entry.
// @Summary Remove local player
// @Description Removes the local player, restoring Wikipedia lookup for that name.
// @Tags players
// @Param name path string true "Player name"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/players/local/{name} [delete]
func (h *Handler) RemoveLocalPlayer(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if !h.catalog.Remove(name) {
		respond.WriteError(w, http.StatusNotFound, "PLAYER_NOT_FOUND", "No local player named "+name)
		return
	}

	h.portraits.InvalidatePortrait(r.Context(), name)
	w.WriteHeader(http.StatusNoContent)
}
