package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const eventsPollInterval = 2 * time.Second

// HandleEvents streams new contributions to the dashboard as server-sent
// events. The client passes the last id it has seen via ?since=; the stream
// polls forward from there until the connection drops.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sinceID := int64(parseIntQuery(r, "since", 0))
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	enc := json.NewEncoder(w)
	ticker := time.NewTicker(eventsPollInterval)
	defer ticker.Stop()

	for {
		batch, err := h.store.ContributionsSince(ctx, sinceID, 100)
		if err != nil {
			slog.Warn("event stream query failed", slog.Any("err", err))
			return
		}
		for _, c := range batch {
			if _, err := w.Write([]byte("event: contribution\ndata: ")); err != nil {
				return
			}
			if err := enc.Encode(c); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			sinceID = c.ID
		}
		if len(batch) > 0 {
			flusher.Flush()
		}
		select {
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
