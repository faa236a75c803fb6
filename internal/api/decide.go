package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TimurManjosov/odegate/internal/analytics"
	"github.com/TimurManjosov/odegate/internal/auth"
	"github.com/TimurManjosov/odegate/internal/gate"
	"github.com/TimurManjosov/odegate/internal/rollout"
	"github.com/TimurManjosov/odegate/internal/telemetry"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

// evaluateUnlockRequest is the body of POST /v1/unlock/evaluate. Conditions
// are taken verbatim; At optionally pins the evaluation instant.
type evaluateUnlockRequest struct {
	Conditions json.RawMessage `json:"conditions"`
	Context    unlock.Context  `json:"context"`
	At         *time.Time      `json:"at,omitempty"`
}

// handleEvaluateUnlock handles POST /v1/unlock/evaluate
func (s *Server) handleEvaluateUnlock(w http.ResponseWriter, r *http.Request) {
	var req evaluateUnlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	at := time.Now()
	if req.At != nil {
		at = *req.At
	}
	res := s.evaluator.EvaluateAt(unlock.ParseConditions(req.Conditions), req.Context, at)
	telemetry.ObserveUnlock(res.IsUnlocked)

	writeJSON(w, http.StatusOK, res)
}

// decideRolloutRequest is the body of POST /v1/rollout/decide. The server
// salt is always used.
type decideRolloutRequest struct {
	Identity rollout.Identity `json:"identity"`
	Config   rollout.Config   `json:"config"`
}

type decideRolloutResponse struct {
	Enabled bool `json:"enabled"`
}

// handleDecideRollout handles POST /v1/rollout/decide
func (s *Server) handleDecideRollout(w http.ResponseWriter, r *http.Request) {
	var req decideRolloutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg := req.Config
	cfg.Salt = s.rolloutSalt

	writeJSON(w, http.StatusOK, decideRolloutResponse{Enabled: rollout.Decide(req.Identity, cfg)})
}

type featureResponse struct {
	Feature string `json:"feature"`
	Variant string `json:"variant"`
	Enabled bool   `json:"enabled"`
}

// handleFeature handles GET /v1/features/{key} for the current session
func (s *Server) handleFeature(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !s.gate.Known(key) {
		NotFoundError(w, r, "feature not found")
		return
	}
	sess := auth.SessionFrom(r.Context())
	v := s.gate.Variant(r.Context(), key, rollout.Identity{UserID: sess.UserID, SessionID: sess.SessionID})

	writeJSON(w, http.StatusOK, featureResponse{Feature: key, Variant: string(v), Enabled: v == gate.Unified})
}

// publish sends ev without failing the request.
func (s *Server) publish(r *http.Request, ev analytics.Event) {
	if err := s.pub.Publish(r.Context(), ev); err != nil {
		s.log.Warn().Err(err).Str("event", ev.Type).Msg("analytics publish failed")
	}
}
