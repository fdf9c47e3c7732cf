package api

import (
	"net/http"
	"strings"

	"clinicboard/pkg/domain"

	"github.com/go-chi/chi/v5"
)

type createGroupRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type memberRequest struct {
	EmployeeID string `json:"employee_id"`
}

// ListGroups returns all groups.
func (h *Handler) ListGroups(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, h.Service.Groups())
}

// CreateGroup adds a group.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "id and name are required"})
		return
	}
	created, _, err := h.Service.AddGroup(r.Context(), domain.Group{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, created)
}

// UpdateGroup merges a patch onto a group.
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch domain.GroupPatch
	if err := decodeStrict(r, &patch); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	updated, _, err := h.Service.UpdateGroup(r.Context(), id, patch)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, updated)
}

// ListGroupMembers resolves a group's membership to employee records.
func (h *Handler) ListGroupMembers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	members, err := h.Service.MembersOf(id)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, members)
}

// AddGroupMember adds an employee to a group.
func (h *Handler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req memberRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "employee_id is required"})
		return
	}
	if _, err := h.Service.AddGroupMember(r.Context(), id, req.EmployeeID); err != nil {
		sendServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveGroupMember drops an employee from a group.
func (h *Handler) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	employeeID := chi.URLParam(r, "employeeID")
	if _, err := h.Service.RemoveGroupMember(r.Context(), id, employeeID); err != nil {
		sendServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
