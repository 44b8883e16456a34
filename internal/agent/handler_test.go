package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaphkiel07/Pawtine2/internal/identity"
)

func newChatRouter(h *Handler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(identity.WithUser(req.Context(), userID, "tab-1"))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.RegisterRoutes(r)
	return r
}

func postChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleChatSuccess(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = `{"message": "Breakfast is set.", "schedule": {"type": "feed", "label": "Luna brunch", "scheduled_time": "2025-03-13T11:00:00Z"}}`
	h := NewHandler(f.svc, NewRateLimiter(5, time.Minute), nil)
	defer h.Close()

	rec := postChat(t, newChatRouter(h, ownerID), `{"messages":[{"role":"user","content":"brunch at 11"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Breakfast is set.", body["message"])
	sched, ok := body["schedule"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, sched["scheduled"])
	assert.Equal(t, "Luna brunch", sched["label"])
}

func TestHandleChatErrors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		f := newChatFixture(t, true)
		h := NewHandler(f.svc, nil, nil)
		defer h.Close()

		rec := postChat(t, newChatRouter(h, ""), `{"messages":[{"role":"user","content":"hi"}]}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no messages", func(t *testing.T) {
		f := newChatFixture(t, true)
		h := NewHandler(f.svc, nil, nil)
		defer h.Close()

		rec := postChat(t, newChatRouter(h, ownerID), `{"messages":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No messages provided.", decodeBody(t, rec)["message"])
	})

	t.Run("invalid body", func(t *testing.T) {
		f := newChatFixture(t, true)
		h := NewHandler(f.svc, nil, nil)
		defer h.Close()

		rec := postChat(t, newChatRouter(h, ownerID), `{"messages":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newChatFixture(t, true)
		f.completer.err = errors.Join(ErrUpstream, context.DeadlineExceeded)
		h := NewHandler(f.svc, nil, nil)
		defer h.Close()

		rec := postChat(t, newChatRouter(h, ownerID), `{"messages":[{"role":"user","content":"hi"}]}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, UpstreamReply, decodeBody(t, rec)["message"])
	})
}

func TestHandleChatRateLimited(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = `{"message": "ok", "schedule": null}`
	h := NewHandler(f.svc, NewRateLimiter(1, time.Minute), nil)
	defer h.Close()
	router := newChatRouter(h, ownerID)

	body := `{"messages":[{"role":"user","content":"hi"}]}`
	assert.Equal(t, http.StatusOK, postChat(t, router, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, postChat(t, router, body).Code)
}

func TestHandleChatWritesConversationLog(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = `{"message": "Good pup!", "schedule": null}`

	dir := t.TempDir()
	logger, err := NewConversationLogger(ConversationLogConfig{Enabled: true, Dir: dir, QueueSize: 8}, nil)
	require.NoError(t, err)
	h := NewHandler(f.svc, nil, logger)

	rec := postChat(t, newChatRouter(h, ownerID), `{"messages":[{"role":"user","content":"is she good?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	h.Close()

	line := waitForLogLine(t, dir+"/"+ownerID+"/tab-1.ndjson")
	var ev ConversationLogEvent
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, "chat_assistant_message", ev.EventType)
	assert.Equal(t, "Good pup!", ev.ContentRaw)
}
