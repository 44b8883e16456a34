package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Zaphkiel07/Pawtine2/internal/identity"
)

func withUser(userID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), userID, "tab-1")))
	})
}

func waitForSessions(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d sessions, got %d", want, hub.Count(userID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketHandler_StreamsEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(withUser("owner-1", NewWebSocketHandler(hub, "*", true)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	waitForSessions(t, hub, "owner-1", 1)
	hub.Publish("owner-1", Revalidate("routine-9", PathHome))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != TypeRevalidate || ev.RoutineID != "routine-9" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestWebSocketHandler_RequiresUser(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/updates", nil)
	NewWebSocketHandler(NewHub(), "*", true).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/updates", nil)
	req.Header.Set("Origin", "https://evil.example")
	withUser("owner-1", NewWebSocketHandler(NewHub(), "https://pawtine.app", false)).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
