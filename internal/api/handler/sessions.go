package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pitchside/dreamteam/internal/analysis"
	"github.com/pitchside/dreamteam/internal/api/respond"
	"github.com/pitchside/dreamteam/internal/formation"
	"github.com/pitchside/dreamteam/internal/metrics"
	"github.com/pitchside/dreamteam/internal/roster"
)

// defaultFormation seeds new sessions; first entry of the catalog.
const defaultFormation = "4-3-3"

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// session resolves the {id} URL param to a live session, writing a 404
// when it is missing or evicted.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*roster.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		respond.WriteError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "No session with ID "+id)
		return nil, false
	}
	return sess, true
}

// CreateSession opens a new squad-building session.
// @Summary Create session
// @Description Creates a session on the given formation (default 4-3-3) with an empty roster.
// @Tags sessions
// @Accept json
// @Produce json
// @Param body body object false "{\"formation\": \"4-3-3\"}"
// @Success 201 {object} roster.State
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Formation string `json:"formation"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
			return
		}
	}
	if req.Formation == "" {
		req.Formation = defaultFormation
	}

	sess, err := h.sessions.Create(req.Formation)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "UNKNOWN_FORMATION", err.Error())
		return
	}
	metrics.UpdateActiveSessions(h.sessions.Count())
	respond.WriteJSONObject(w, http.StatusCreated, sess.Snapshot())
}

// GetSession returns a session's current state.
// @Summary Get session
// @Description Returns formation, view mode, and the slot-to-name roster for the session.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} roster.State
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, sess.Snapshot())
}

// DeleteSession discards a session.
// @Summary Delete session
// @Description Removes the session and its roster.
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Delete(id) {
		respond.WriteError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "No session with ID "+id)
		return
	}
	metrics.UpdateActiveSessions(h.sessions.Count())
	w.WriteHeader(http.StatusNoContent)
}

// SetSessionFormation switches the session's formation.
// @Summary Switch formation
// @Description Changes the session's formation. Entries for slots the new formation lacks are kept but hidden until a switch back.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body object true "{\"formation\": \"3-5-2\"}"
// @Success 200 {object} roster.State
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/sessions/{id}/formation [put]
func (h *Handler) SetSessionFormation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Formation string `json:"formation"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if err := sess.SetFormation(req.Formation); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "UNKNOWN_FORMATION", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, sess.Snapshot())
}

// SetSessionView toggles between pitch and list rendering.
// @Summary Set view mode
// @Description Sets the session's view mode to "pitch" or "list".
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body object true "{\"view\": \"list\"}"
// @Success 200 {object} roster.State
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/sessions/{id}/view [put]
func (h *Handler) SetSessionView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		View string `json:"view"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	view, err := roster.ParseViewMode(req.View)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "UNKNOWN_VIEW", err.Error())
		return
	}
	if err := sess.SetView(view); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "UNKNOWN_VIEW", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, sess.Snapshot())
}

// SetSessionSlot records a player name for one slot.
// @Summary Set slot player
// @Description Stores a player name for a slot of the current formation. An empty name clears the slot.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param slot path string true "Slot key, e.g. DEF2"
// @Param body body object true "{\"name\": \"Virgil van Dijk\"}"
// @Success 200 {object} roster.State
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/sessions/{id}/slots/{slot} [put]
func (h *Handler) SetSessionSlot(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	slot := chi.URLParam(r, "slot")
	if err := sess.SetPlayer(slot, req.Name); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "UNKNOWN_SLOT", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, sess.Snapshot())
}

type squadMarker struct {
	Slot        string               `json:"slot"`
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	PortraitURL string               `json:"portrait_url"`
	Coordinate  formation.Coordinate `json:"coordinate"`
}

// GetSessionSquad returns positioned markers for the session's roster.
// @Summary Get squad markers
// @Description Returns one marker per slot with display name, portrait URL, and pitch coordinate. Portrait lookups run serially per slot.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/sessions/{id}/squad [get]
func (h *Handler) GetSessionSquad(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	f := sess.Formation()
	layout := formation.Layout(f.Name)
	entries := sess.Entries()

	markers := make([]squadMarker, len(entries))
	filled := 0
	for i, e := range entries {
		if e.Name != "" {
			filled++
		}
		markers[i] = squadMarker{
			Slot:        e.Slot,
			Name:        e.Name,
			DisplayName: e.DisplayName(),
			PortraitURL: h.portraits.PortraitURL(r.Context(), e.Name),
			Coordinate:  formation.CoordinateFor(layout, e.Slot),
		}
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"session_id":      sess.ID(),
		"formation":       f.Name,
		"required":        f.SquadSize(),
		"filled":          filled,
		"markers":         markers,
		"pitch_image_url": h.cfg.PitchImageURL,
	})
}

// AnalyzeSession runs the roster analysis for a session.
// @Summary Analyze team
// @Description Validates roster completeness and generates a tactical write-up. Incomplete rosters get a 422 without any external call; generation failures get a 502.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/sessions/{id}/analysis [post]
func (h *Handler) AnalyzeSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	state := sess.Snapshot()
	start := time.Now()
	res := h.analyzer.Analyze(r.Context(), state.Formation, state.Players)
	latencyMs := float64(time.Since(start).Milliseconds())

	if !res.OK() {
		switch res.Failure.Category {
		case analysis.CategoryValidation:
			metrics.RecordAnalysis("validation_failed", latencyMs)
			respond.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", res.Failure.Message)
		default:
			metrics.RecordAnalysis("generation_failed", latencyMs)
			respond.WriteError(w, http.StatusBadGateway, "GENERATION_FAILED", res.Failure.Message)
		}
		return
	}

	metrics.RecordAnalysis("success", latencyMs)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"session_id": sess.ID(),
		"formation":  state.Formation,
		"model":      h.generator.Model(),
		"markdown":   res.Markdown,
	})
}
