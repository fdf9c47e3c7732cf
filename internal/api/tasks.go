package api

import (
	"net/http"
	"strings"

	"clinicboard/pkg/domain"

	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AssigneeID  string `json:"assignee_id"`
	GroupID     string `json:"group_id"`
	StatusID    string `json:"status_id"`
	DueDate     string `json:"due_date"`
}

// ListTasks returns all tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, h.Service.Tasks())
}

// ListVisibleTasks returns the tasks visible to the current session.
func (h *Handler) ListVisibleTasks(w http.ResponseWriter, _ *http.Request) {
	tasks := h.Service.VisibleTasks()
	if tasks == nil {
		tasks = []domain.Task{}
	}
	sendJSON(w, http.StatusOK, tasks)
}

// CreateTask adds a task. A blank ID draws the next generated identifier.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeStrict(r, &req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
		return
	}
	created, _, err := h.Service.AddTask(r.Context(), domain.Task{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		GroupID:     req.GroupID,
		StatusID:    req.StatusID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, created)
}

// UpdateTask merges a patch onto a task.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch domain.TaskPatch
	if err := decodeStrict(r, &patch); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	updated, _, err := h.Service.UpdateTask(r.Context(), id, patch)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, updated)
}

// CompleteTask moves a task to the terminal column.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	updated, _, err := h.Service.MarkTaskComplete(r.Context(), id)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, updated)
}
