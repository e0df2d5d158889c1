package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pitchside/dreamteam/internal/api/respond"
)

// GetPortrait resolves the portrait URL for a player name.
// @Summary Get player portrait
// @Description Resolves a portrait thumbnail via the local catalog, the cache, or Wikipedia. Always returns a renderable URL; unresolvable names get the default image.
// @Tags portraits
// @Produce json
// @Param name path string true "Player name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/portraits/{name} [get]
func (h *Handler) GetPortrait(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "Player name is required")
		return
	}

	url := h.portraits.PortraitURL(r.Context(), name)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":         name,
		"portrait_url": url,
		"default":      url == h.portraits.DefaultImageURL(),
	})
}
