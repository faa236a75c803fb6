package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/TimurManjosov/odegate/internal/analytics"
	"github.com/TimurManjosov/odegate/internal/auth"
	"github.com/TimurManjosov/odegate/internal/rollout"
	"github.com/TimurManjosov/odegate/internal/store"
	"github.com/TimurManjosov/odegate/internal/telemetry"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

// listResponse is returned by the chapter listing endpoints. Variant is the
// button system variant for the caller and only set for button lists.
type listResponse struct {
	ChapterID string         `json:"chapterId"`
	Kind      store.Kind     `json:"kind"`
	Variant   string         `json:"variant,omitempty"`
	Items     []itemResponse `json:"items"`
}

// handleListItems handles GET /v1/chapters/{chapterID}/buttons and /sub-chapters
func (s *Server) handleListItems(kind store.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chapterID := strings.TrimSpace(chi.URLParam(r, "chapterID"))
		ctx, span := telemetry.Tracer().Start(r.Context(), "content.list",
			trace.WithAttributes(attribute.String("chapter.id", chapterID), attribute.String("item.kind", string(kind))))
		defer span.End()

		items, err := s.store.ListItems(ctx, s.env, chapterID, kind)
		if err != nil {
			span.RecordError(err)
			serverError(w, r, err, "list items failed")
			return
		}
		uctx, err := s.unlockContext(r.WithContext(ctx))
		if err != nil {
			span.RecordError(err)
			serverError(w, r, err, "load progress failed")
			return
		}

		now := time.Now()
		resp := listResponse{ChapterID: chapterID, Kind: kind, Items: make([]itemResponse, 0, len(items))}
		for _, item := range items {
			res := s.evaluator.EvaluateAt(unlock.ParseConditions(item.UnlockConditions), uctx, now)
			telemetry.ObserveUnlock(res.IsUnlocked)
			resp.Items = append(resp.Items, annotate(item, res))
		}
		if kind == store.KindButton && s.buttonFeature != "" {
			sess := auth.SessionFrom(ctx)
			resp.Variant = string(s.gate.Variant(ctx, s.buttonFeature, rollout.Identity{UserID: sess.UserID, SessionID: sess.SessionID}))
		}
		span.SetAttributes(attribute.Int("item.count", len(items)))

		writeJSON(w, http.StatusOK, resp)
	}
}

// handleGetItem handles GET /v1/items/{id}
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := s.store.GetItem(r.Context(), s.env, id)
	if errors.Is(err, store.ErrNotFound) {
		NotFoundError(w, r, "item not found")
		return
	}
	if err != nil {
		serverError(w, r, err, "get item failed")
		return
	}
	uctx, err := s.unlockContext(r)
	if err != nil {
		serverError(w, r, err, "load progress failed")
		return
	}

	res := s.evaluator.Evaluate(unlock.ParseConditions(item.UnlockConditions), uctx)
	telemetry.ObserveUnlock(res.IsUnlocked)
	s.publish(r, analytics.NewEvent(analytics.TypeUnlockEvaluated, uctx.UserID, item.ID, unlockOutcome(res)))

	writeJSON(w, http.StatusOK, annotate(*item, res))
}

func unlockOutcome(res unlock.Result) string {
	if res.IsUnlocked {
		return "unlocked"
	}
	return "locked"
}
