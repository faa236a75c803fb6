package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

const streamHeartbeat = 15 * time.Second

// handleAnalyticsStream handles GET /v1/analytics/stream. It sends a "ready"
// event, then one event per analytics record named after its type, with a
// comment heartbeat while idle.
func (s *Server) handleAnalyticsStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		NotFoundError(w, r, "analytics stream is not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, r, "streaming unsupported")
		return
	}

	events, unsub := s.hub.Subscribe()
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("encode analytics event")
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data)
			flusher.Flush()
		}
	}
}
