package agent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Zaphkiel07/Pawtine2/internal/identity"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

const logChannel = "chat_http"

// Handler serves the chat endpoint.
type Handler struct {
	agent       *Service
	rateLimiter *RateLimiter
	log         ConversationLogger
	maxBodySize int64
}

// NewHandler creates a chat handler. A nil logger disables conversation logs.
func NewHandler(svc *Service, limiter *RateLimiter, logger ConversationLogger) *Handler {
	if logger == nil {
		logger = noopConversationLogger{}
	}
	if limiter == nil {
		limiter = NewRateLimiter(10, time.Minute)
	}
	return &Handler{
		agent:       svc,
		rateLimiter: limiter,
		log:         logger,
		maxBodySize: defaultMaxRequestBodySize,
	}
}

// RegisterRoutes registers chat routes (requires identity middleware).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
	if err := h.log.Close(); err != nil {
		slog.Warn("failed to close conversation logger", "error", err)
	}
}

// HandleChat handles POST /api/chat requests.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if !h.rateLimiter.Allow(userID) {
		slog.Warn("Chat rate limit exceeded", "user_id", userID, "ip", identity.IPFromRequest(r))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": "You are sending messages too quickly. Please wait a moment."})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"message": "Request body too large."})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body."})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No messages provided."})
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	last := req.Messages[len(req.Messages)-1]
	slog.Info("Chat request",
		"user_id", userID,
		"session_id", sessionID,
		"messages", len(req.Messages),
		"last_message_length", len(last.Content),
	)
	h.log.Log(ConversationLogEvent{
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    logChannel,
		Direction:  "outbound",
		EventType:  EventUserMessage,
		ContentRaw: last.Content,
		Meta: map[string]any{
			"request_id": reqID,
			"turns":      len(req.Messages),
		},
	})

	resp, err := h.agent.Chat(r.Context(), userID, req.Messages)
	if err != nil {
		h.logAssistantMessage(userID, sessionID, "", reqID, nil, err)
		switch {
		case errors.Is(err, ErrNoMessages):
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No messages provided."})
		case errors.Is(err, ErrUpstream):
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": UpstreamReply})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": UpstreamReply})
		}
		return
	}

	h.logAssistantMessage(userID, sessionID, resp.Message, reqID, resp.Schedule, nil)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) logAssistantMessage(userID, sessionID, content, requestID string, sched *ScheduleResult, chatErr error) {
	meta := map[string]any{"request_id": requestID}
	if sched != nil {
		meta["scheduled"] = sched.Scheduled
		meta["routine_id"] = sched.RoutineID
		meta["schedule_reason"] = sched.Reason
	}
	if chatErr != nil {
		meta["error"] = chatErr.Error()
	}
	h.log.Log(ConversationLogEvent{
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    logChannel,
		Direction:  "inbound",
		EventType:  EventAssistantMessage,
		ContentRaw: content,
		Meta:       meta,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode chat response", "error", err)
	}
}
