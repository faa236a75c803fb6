package api

import (
	"net/http"

	"github.com/TimurManjosov/odegate/internal/auth"
	"github.com/TimurManjosov/odegate/internal/validation"
)

// handleGetProgress handles GET /v1/me/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := auth.SessionFrom(r.Context()).UserID
	progress, err := s.store.GetProgress(r.Context(), userID)
	if err != nil {
		serverError(w, r, err, "get progress failed")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type stampRequest struct {
	StampID string `json:"stampId"`
}

// handleAddStamp handles POST /v1/me/stamps
func (s *Server) handleAddStamp(w http.ResponseWriter, r *http.Request) {
	var req stampRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if res := validation.ValidateID("stampId", req.StampID); !res.Valid {
		ValidationError(w, r, "invalid stamp", res.Errors)
		return
	}

	userID := auth.SessionFrom(r.Context()).UserID
	if err := s.store.AddStamp(r.Context(), userID, req.StampID); err != nil {
		serverError(w, r, err, "add stamp failed")
		return
	}
	s.handleGetProgress(w, r)
}

type taskRequest struct {
	TaskID string `json:"taskId"`
}

// handleCompleteTask handles POST /v1/me/tasks
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if res := validation.ValidateID("taskId", req.TaskID); !res.Valid {
		ValidationError(w, r, "invalid task", res.Errors)
		return
	}

	userID := auth.SessionFrom(r.Context()).UserID
	if err := s.store.CompleteTask(r.Context(), userID, req.TaskID); err != nil {
		serverError(w, r, err, "complete task failed")
		return
	}
	s.handleGetProgress(w, r)
}
