package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/relay"
)

// registerEventRoutes mounts the per-session event streams. Both are raw
// routes because huma does not model long-lived responses.
func registerEventRoutes(router chi.Router, svc Service) {
	router.Get("/api/v1/sessions/{session_id}/events", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "session_id")
		if _, err := svc.GetSession(id); err != nil {
			writeCodedError(w, err)
			return
		}
		relay.ServeSSE(w, r, svc.Broker(), id)
	})

	router.Get("/api/v1/sessions/{session_id}/ws", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "session_id")
		if _, err := svc.GetSession(id); err != nil {
			writeCodedError(w, err)
			return
		}
		relay.ServeWS(w, r, svc.Broker(), id)
	})
}
