package api

import (
	"net/http"
	"strings"

	"clinicboard/pkg/domain"

	"github.com/go-chi/chi/v5"
)

type createStatusRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type reorderRequest struct {
	Direction string `json:"direction"`
}

// ListStatuses returns statuses in workflow order.
func (h *Handler) ListStatuses(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, h.Service.StatusesByOrder())
}

// CreateStatus appends a workflow status.
func (h *Handler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	var req createStatusRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "id and name are required"})
		return
	}
	created, _, err := h.Service.AddStatus(r.Context(), domain.Status{
		ID:    req.ID,
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, created)
}

// ReorderStatus swaps a status with its neighbour.
func (h *Handler) ReorderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req reorderRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	direction := domain.Direction(req.Direction)
	if direction != domain.DirectionUp && direction != domain.DirectionDown {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "direction must be up or down"})
		return
	}
	if _, err := h.Service.ReorderStatus(r.Context(), id, direction); err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, h.Service.StatusesByOrder())
}

// DeleteStatus removes a status and reassigns its tasks.
func (h *Handler) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Service.RemoveStatus(r.Context(), id); err != nil {
		sendServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
