// Package api exposes the board service over HTTP with JSON payloads.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"clinicboard/internal/core"
	"clinicboard/pkg/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var startTime = time.Now()

// HealthResponse is the payload served on /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Handler serves the board API on top of a core service.
type Handler struct {
	Service *core.Service
}

// NewRouter builds the HTTP router for the given service.
func NewRouter(svc *core.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", handleHealth)

	h := &Handler{Service: svc}

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.Login)
		r.Get("/session", h.Session)
		r.Delete("/session", h.Logout)

		r.Get("/employees", h.ListEmployees)
		r.Post("/employees", h.CreateEmployee)
		r.Patch("/employees/{id}", h.UpdateEmployee)
		r.Delete("/employees/{id}", h.DeleteEmployee)

		r.Get("/groups", h.ListGroups)
		r.Post("/groups", h.CreateGroup)
		r.Patch("/groups/{id}", h.UpdateGroup)
		r.Get("/groups/{id}/members", h.ListGroupMembers)
		r.Post("/groups/{id}/members", h.AddGroupMember)
		r.Delete("/groups/{id}/members/{employeeID}", h.RemoveGroupMember)

		r.Get("/statuses", h.ListStatuses)
		r.Post("/statuses", h.CreateStatus)
		r.Post("/statuses/{id}/reorder", h.ReorderStatus)
		r.Delete("/statuses/{id}", h.DeleteStatus)

		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/visible", h.ListVisibleTasks)
		r.Post("/tasks", h.CreateTask)
		r.Patch("/tasks/{id}", h.UpdateTask)
		r.Post("/tasks/{id}/complete", h.CompleteTask)

		r.Get("/activity", h.ListActivity)

		r.Get("/theme", h.GetTheme)
		r.Put("/theme", h.SetTheme)
		r.Post("/theme/toggle", h.ToggleTheme)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   getVersion(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// sendServiceError maps core error values onto HTTP statuses.
func sendServiceError(w http.ResponseWriter, err error) {
	var dup core.DuplicateIDError
	var nf core.NotFoundError
	var violation domain.RuleViolationError
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		sendJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrBlocked):
		sendJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &dup):
		sendJSON(w, http.StatusConflict, errorResponse{Error: dup.Error()})
	case errors.As(err, &nf):
		sendJSON(w, http.StatusNotFound, errorResponse{Error: nf.Error()})
	case errors.As(err, &violation):
		sendJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: violation.Error()})
	default:
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func decodeStrict(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
