package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"task-tracker/internal/logger"
	"task-tracker/internal/manager"
	"task-tracker/internal/models"
)

// TaskResponse is a task as returned by the API. Position is the 1-based
// place of the task in the returned view.
type TaskResponse struct {
	ID        string      `json:"id"`
	Position  int         `json:"position,omitempty"`
	Name      string      `json:"task"`
	Priority  string      `json:"priority"`
	DueDate   models.Date `json:"due_date"`
	Completed bool        `json:"completed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewRouter(tm *manager.TaskManager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/tasks", listTasksHandler(tm))
	r.Post("/tasks", addTaskHandler(tm))
	r.Patch("/tasks/{id}", updateTaskHandler(tm))
	r.Post("/tasks/{id}/complete", completeTaskHandler(tm))
	r.Delete("/tasks/{id}", deleteTaskHandler(tm))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func toResponse(task models.Task, position int) TaskResponse {
	return TaskResponse{
		ID:        task.ID,
		Position:  position,
		Name:      task.Name,
		Priority:  task.Priority.String(),
		DueDate:   task.DueDate,
		Completed: task.Completed,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), err, "request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeManagerError maps ErrTaskNotFound to 404 and everything else to 500.
func writeManagerError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, manager.ErrTaskNotFound) {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeError(w, r, http.StatusInternalServerError, err)
}

// parseDue turns the API's due date string into a Date; "" means no date.
func parseDue(s string) (models.Date, error) {
	if s == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(s)
}

func listTasksHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := manager.ParseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		sortBy, err := manager.ParseSortKey(r.URL.Query().Get("sort"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}

		view := tm.ListTasks(manager.ViewOptions{Status: status, SortBy: sortBy})
		resp := make([]TaskResponse, 0, len(view))
		for i, task := range view {
			resp = append(resp, toResponse(task, i+1))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func addTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req models.CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}

		due, err := parseDue(req.DueDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}

		task, err := tm.AddTask(r.Context(), req.Name, req.Priority, due)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(task, 0))
	}
}

func updateTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req models.UpdateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}

		update := manager.UpdateTaskRequest{Name: req.Name, Priority: req.Priority}
		if req.DueDate != nil {
			due, err := parseDue(*req.DueDate)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err)
				return
			}
			update.DueDate = &due
		}

		task, err := tm.UpdateTask(r.Context(), chi.URLParam(r, "id"), update)
		if err != nil {
			writeManagerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(task, 0))
	}
}

func completeTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := tm.CompleteTask(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeManagerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(task, 0))
	}
}

func deleteTaskHandler(tm *manager.TaskManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := tm.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeManagerError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
