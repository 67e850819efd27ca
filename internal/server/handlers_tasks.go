package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/taskauth/internal/tasks"
)

const (
	defaultListLimit = 100
)

type taskRequest struct {
	Name     string         `json:"name"`
	Status   tasks.Status   `json:"status"`
	Priority tasks.Priority `json:"priority"`
	Capacity *int           `json:"capacity"`
	Effort   *int           `json:"effort"`
	Subject  string         `json:"subject"`
	DueDate  string         `json:"due_date"`
}

func decodeTask(r *http.Request) (tasks.Fields, error) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return tasks.Fields{}, unprocessable("invalid task body: %v", err)
	}
	if req.Capacity == nil || req.Effort == nil {
		return tasks.Fields{}, unprocessable("capacity and effort are required")
	}
	return tasks.Fields{
		Name:     req.Name,
		Status:   req.Status,
		Priority: req.Priority,
		Capacity: *req.Capacity,
		Effort:   *req.Effort,
		Subject:  req.Subject,
		DueDate:  req.DueDate,
	}, nil
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, unprocessable("task id must be an integer")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, unprocessable("%s must be a non-negative integer", key)
	}
	return v, nil
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	f, err := decodeTask(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.tasks.Create(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "task created", "id", t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.tasks.List(r.Context(), skip, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := decodeTask(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.tasks.Update(r.Context(), id, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "task updated", "id", t.ID)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "task deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
