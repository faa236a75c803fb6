package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/TimurManjosov/odegate/internal/auth"
	"github.com/TimurManjosov/odegate/internal/store"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

// ===== HTTP Helpers =====

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a size-limited request body into v. On failure it has
// already written the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, "request body exceeds 1MB")
			return false
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return false
	}
	return true
}

// serverError logs err with the request logger and writes a generic 500.
func serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	hlog.FromRequest(r).Error().Err(err).Msg(msg)
	InternalError(w, r, "internal error")
}

// ===== Unlock Helpers =====

// unlockContext assembles the evaluation context for the current request:
// the session user, their progress from the store, and an optional location
// from the lat/lng query parameters.
func (s *Server) unlockContext(r *http.Request) (unlock.Context, error) {
	sess := auth.SessionFrom(r.Context())
	ctx := unlock.Context{UserID: sess.UserID, Location: locationFromQuery(r)}
	if !sess.SignedIn() {
		return ctx, nil
	}
	progress, err := s.store.GetProgress(r.Context(), sess.UserID)
	if err != nil {
		return ctx, err
	}
	ctx.Stamps = progress.Stamps
	ctx.CompletedTasks = progress.CompletedTasks
	return ctx, nil
}

// locationFromQuery returns a location only when both coordinates parse.
func locationFromQuery(r *http.Request) *unlock.Location {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		return nil
	}
	return &unlock.Location{Lat: lat, Lng: lng}
}

// ===== Conversion Helpers =====

// itemResponse is the public representation of an item. Raw conditions are
// not exposed; only their outcome is.
type itemResponse struct {
	ID         string     `json:"id"`
	Kind       store.Kind `json:"kind"`
	ChapterID  string     `json:"chapterId"`
	Title      string     `json:"title"`
	Label      string     `json:"label,omitempty"`
	Link       string     `json:"link,omitempty"`
	Position   int        `json:"position"`
	UpdatedAt  string     `json:"updatedAt"`
	IsUnlocked bool       `json:"isUnlocked"`
	UnlockHint string     `json:"unlockHint,omitempty"`
}

func annotate(item store.Item, res unlock.Result) itemResponse {
	return itemResponse{
		ID:         item.ID,
		Kind:       item.Kind,
		ChapterID:  item.ChapterID,
		Title:      item.Title,
		Label:      item.Label,
		Link:       item.Link,
		Position:   item.Position,
		UpdatedAt:  item.UpdatedAt.UTC().Format(time.RFC3339),
		IsUnlocked: res.IsUnlocked,
		UnlockHint: res.Hint,
	}
}
