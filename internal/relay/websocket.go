package relay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// ServeWS upgrades the request and writes sessionID's events as text frames.
// Client frames are read only to notice the close.
func ServeWS(w http.ResponseWriter, r *http.Request, broker *Broker, sessionID string) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Debug("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("websocket close failed", "session_id", sessionID, "error", err)
		}
	}()

	kindFilter := parseKinds(r.URL.Query().Get("kinds"))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return
			}
		}
	}()

	id, ch := broker.Subscribe(sessionID)
	defer broker.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
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
				continue
			}
			if err := wsutil.WriteServerText(conn, data); err != nil {
				slog.Debug("websocket write failed", "session_id", sessionID, "error", err)
				return
			}
		}
	}
}
