package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"
	"github.com/snarg/blogsmith/internal/events"
)

type EventsHandler struct {
	bus *events.Bus
}

func NewEventsHandler(bus *events.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// StreamEvents opens an SSE connection and pushes pipeline events.
// Supports ?run_id= and ?types= filters and Last-Event-ID replay.
func (h *EventsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	filter := events.Filter{
		RunID: r.URL.Query().Get("run_id"),
	}
	if v := r.URL.Query().Get("types"); v != "" {
		filter.Types = strings.Split(v, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, cancel := h.bus.Subscribe(filter)
	defer cancel()

	// Replay missed events on reconnect
	for _, e := range h.bus.ReplaySince(r.Header.Get("Last-Event-ID"), filter) {
		writeSSE(w, e.ID, e.Type, e)
	}
	flusher.Flush()

	log := hlog.FromRequest(r)
	log.Debug().Str("run_id", filter.RunID).Msg("sse subscriber connected")

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("sse subscriber disconnected")
			return
		case e := <-ch:
			writeSSE(w, e.ID, e.Type, e)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, id, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", id, event, data)
}
