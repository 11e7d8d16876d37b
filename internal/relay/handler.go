package relay

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// ServeSSE streams sessionID's events until the client disconnects or the
// session closes. Clients may filter kinds via ?kinds=a,b.
func ServeSSE(w http.ResponseWriter, r *http.Request, broker *Broker, sessionID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	kindFilter := parseKinds(r.URL.Query().Get("kinds"))

	id, ch := broker.Subscribe(sessionID)
	defer broker.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if kindFilter != nil && !kindFilter[evt.Kind] {
				continue
			}
			data, err := evt.Encode()
			if err != nil {
				slog.Debug("sse event encode failed", "session_id", sessionID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, data)
			flusher.Flush()
		}
	}
}

func parseKinds(q string) map[string]bool {
	if q == "" {
		return nil
	}
	filter := make(map[string]bool)
	for _, k := range strings.Split(q, ",") {
		if k = strings.TrimSpace(k); k != "" {
			filter[k] = true
		}
	}
	return filter
}
