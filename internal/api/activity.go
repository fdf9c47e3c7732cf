package api

import (
	"net/http"

	"clinicboard/pkg/domain"
)

type themeResponse struct {
	Theme domain.Theme `json:"theme"`
}

type setThemeRequest struct {
	Theme string `json:"theme"`
}

// ListActivity returns the recent activity log, newest first.
func (h *Handler) ListActivity(w http.ResponseWriter, _ *http.Request) {
	entries := h.Service.Activity()
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	sendJSON(w, http.StatusOK, entries)
}

// GetTheme returns the current display palette.
func (h *Handler) GetTheme(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, themeResponse{Theme: h.Service.Theme()})
}

// SetTheme switches the display palette. Unknown values are recorded in the
// activity log and dropped, matching the service behavior.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req setThemeRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if _, err := h.Service.SetTheme(r.Context(), domain.Theme(req.Theme)); err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, themeResponse{Theme: h.Service.Theme()})
}

// ToggleTheme flips between the two palettes.
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	next, _, err := h.Service.ToggleTheme(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, themeResponse{Theme: next})
}
