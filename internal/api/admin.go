package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TimurManjosov/odegate/internal/analytics"
	"github.com/TimurManjosov/odegate/internal/store"
	"github.com/TimurManjosov/odegate/internal/validation"
)

type upsertItemRequest struct {
	Kind             string          `json:"kind"`
	ChapterID        string          `json:"chapterId"`
	Title            string          `json:"title"`
	Label            string          `json:"label,omitempty"`
	Link             string          `json:"link,omitempty"`
	Position         int             `json:"position"`
	UnlockConditions json.RawMessage `json:"unlockConditions,omitempty"`
	Env              *string         `json:"env,omitempty"` // defaults to s.env
}

// handleUpsertItem handles PUT /v1/items/{id}
func (s *Server) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	var req upsertItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	env := s.envOrDefault(req.Env)
	conds := req.UnlockConditions
	if trimmed := bytes.TrimSpace(conds); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		conds = nil
	}

	result := validation.ValidateItem(validation.ItemValidationParams{
		ID:         id,
		Env:        env,
		Kind:       req.Kind,
		ChapterID:  req.ChapterID,
		Title:      req.Title,
		Label:      req.Label,
		Link:       req.Link,
		Position:   req.Position,
		Conditions: conds,
	})
	if !result.Valid {
		ValidationError(w, r, "item validation failed", result.Errors)
		return
	}

	params := store.UpsertParams{
		ID:               id,
		Kind:             store.Kind(req.Kind),
		ChapterID:        req.ChapterID,
		Title:            req.Title,
		Label:            req.Label,
		Link:             req.Link,
		Position:         req.Position,
		UnlockConditions: conds,
		Env:              env,
	}
	if err := s.store.UpsertItem(r.Context(), params); err != nil {
		serverError(w, r, err, "upsert item failed")
		return
	}
	item, err := s.store.GetItem(r.Context(), env, id)
	if err != nil {
		serverError(w, r, err, "reload item failed")
		return
	}

	s.publish(r, analytics.NewEvent(analytics.TypeItemChanged, "", id, "upsert"))
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteItem handles DELETE /v1/items/{id}?env=
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var envParam *string
	if e := r.URL.Query().Get("env"); e != "" {
		envParam = &e
	}
	env := s.envOrDefault(envParam)

	if err := s.store.DeleteItem(r.Context(), env, id); err != nil {
		serverError(w, r, err, "delete item failed")
		return
	}

	s.publish(r, analytics.NewEvent(analytics.TypeItemChanged, "", id, "delete"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) envOrDefault(env *string) string {
	if env != nil && strings.TrimSpace(*env) != "" {
		return strings.TrimSpace(*env)
	}
	return s.env
}
