package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/Zaphkiel07/Pawtine2/internal/identity"
)

const (
	writeTimeout        = 5 * time.Second
	defaultPingInterval = 30 * time.Second
)

// WebSocketHandler streams hub events to the browser.
type WebSocketHandler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
	pingInterval  time.Duration
}

// NewWebSocketHandler creates a handler for the live revalidation feed.
func NewWebSocketHandler(hub *Hub, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		pingInterval:  defaultPingInterval,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}

	sub := h.hub.Register(userID, sessionID)
	defer h.hub.Unregister(userID, sessionID, sub)

	// The feed is one-way; CloseRead handles control frames and cancels ctx
	// once the client goes away.
	ctx := ws.CloseRead(r.Context())

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				_ = ws.Close(websocket.StatusNormalClosure, "session replaced")
				return
			}
			if err := h.writeJSON(ctx, ws, ev); err != nil {
				slog.Debug("Live feed write failed", "error", err, "user_id", userID)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Debug("Live feed ping failed", "error", err, "user_id", userID)
				return
			}
		case <-ctx.Done():
			_ = ws.Close(websocket.StatusNormalClosure, "session ended")
			return
		}
	}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
