package api

import (
	"net/http"
	"strings"

	"clinicboard/pkg/domain"

	"github.com/go-chi/chi/v5"
)

type createEmployeeRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Salary      float64 `json:"salary"`
	DateOfHire  string  `json:"date_of_hire"`
	DateOfBirth string  `json:"date_of_birth"`
	Department  string  `json:"department"`
	Role        string  `json:"role"`
}

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, h.Service.Employees())
}

// CreateEmployee adds an employee record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "id and name are required"})
		return
	}
	created, _, err := h.Service.AddEmployee(r.Context(), domain.Employee{
		ID:          req.ID,
		Name:        req.Name,
		Address:     req.Address,
		Salary:      req.Salary,
		DateOfHire:  req.DateOfHire,
		DateOfBirth: req.DateOfBirth,
		Department:  req.Department,
		Role:        req.Role,
	})
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, created)
}

// UpdateEmployee merges a patch onto an employee.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch domain.EmployeePatch
	if err := decodeStrict(r, &patch); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	updated, _, err := h.Service.UpdateEmployee(r.Context(), id, patch)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, updated)
}

// DeleteEmployee removes an employee and cascades reference cleanup.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Service.RemoveEmployee(r.Context(), id); err != nil {
		sendServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
