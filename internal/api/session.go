package api

import (
	"net/http"
	"strings"
)

type loginRequest struct {
	EmployeeID    string `json:"employee_id"`
	AdminOverride bool   `json:"admin_override"`
}

type sessionResponse struct {
	EmployeeID string `json:"employee_id"`
	Admin      bool   `json:"admin"`
}

// Login establishes a session for an employee.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "employee_id is required"})
		return
	}
	sess, _, err := h.Service.Login(r.Context(), req.EmployeeID, req.AdminOverride)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, sessionResponse{EmployeeID: sess.EmployeeID, Admin: sess.Admin})
}

// Session returns the active session, if any.
func (h *Handler) Session(w http.ResponseWriter, _ *http.Request) {
	sess, ok := h.Service.CurrentSession()
	if !ok {
		sendJSON(w, http.StatusNotFound, errorResponse{Error: "no active session"})
		return
	}
	sendJSON(w, http.StatusOK, sessionResponse{EmployeeID: sess.EmployeeID, Admin: sess.Admin})
}

// Logout clears the active session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.Logout(r.Context()); err != nil {
		sendServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
