package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/metrics"
	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
)

// ErrNoMessages is returned when a chat request carries no conversation.
var ErrNoMessages = errors.New("no messages provided")

// Canned replies.
const (
	SetupHint     = "Hi! Add an OPENAI_API_KEY in your environment to chat with the Pawtine assistant."
	UpstreamReply = "I ran into an issue contacting OpenAI. Please try again in a bit."
	fallbackReply = `{"message": "I could not find a helpful answer, but I am still here to help!", "schedule": null}`
)

// MaxMessageLength bounds the characters of each message forwarded upstream.
const MaxMessageLength = 1000

// Schedule outcomes reported to metrics.
const (
	OutcomeScheduled = "scheduled"
	OutcomeInvalid   = "invalid_time"
	OutcomeNoDog     = "no_dog"
	OutcomeFailed    = "error"
)

const systemPrompt = `You are Pawtine, a friendly dog care assistant. Provide concise, encouraging answers that help dog owners stay on top of feeding, hydration, and walk routines. Reference app features when relevant, but avoid making promises about unavailable functionality. The current time is: {{CURRENT_TIME}}. Use this context to understand relative time references like "tomorrow at 10am" or "in 2 hours". Always respond with a JSON object using this shape: {"message": "...", "schedule": {"type": "feed | walk | water | custom", "label": "optional label", "scheduled_time": "ISO-8601 timestamp (e.g. 2025-03-14T10:00:00Z)"}} If no scheduling is required, set "schedule" to null.`

var scheduledTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Scheduler creates routines requested by the assistant.
type Scheduler interface {
	Schedule(ctx context.Context, userID string, in routines.ScheduleInput) (*domain.Routine, error)
}

// Service answers chat turns and applies any schedule the reply asks for.
type Service struct {
	completer Completer
	scheduler Scheduler
	clock     schedule.Clock
	metrics   *metrics.Metrics
}

// NewService creates a chat service. A nil completer makes every reply the
// setup hint.
func NewService(completer Completer, scheduler Scheduler, clock schedule.Clock, m *metrics.Metrics) *Service {
	if clock == nil {
		clock = schedule.SystemClock
	}
	return &Service{
		completer: completer,
		scheduler: scheduler,
		clock:     clock,
		metrics:   m,
	}
}

// Enabled reports whether a completion provider is configured.
func (s *Service) Enabled() bool {
	return s.completer != nil
}

// Chat sends the conversation upstream and returns the assistant's reply.
// Scheduling failures never fail the reply; they are reported in Schedule.
func (s *Service) Chat(ctx context.Context, userID string, messages []Message) (resp *ChatResponse, err error) {
	defer func() { s.metrics.ChatRequest(err) }()

	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	if s.completer == nil {
		return &ChatResponse{Message: SetupHint}, nil
	}

	now := s.clock.Now()
	raw, err := s.completer.Complete(ctx, s.buildPrompt(messages, now))
	if err != nil {
		slog.Error("Chat completion failed", "error", err, "user_id", userID)
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		raw = fallbackReply
	}

	parsed, ok := parseReply(raw)
	if !ok {
		slog.Debug("Assistant reply was not JSON", "user_id", userID)
		return &ChatResponse{Message: raw}, nil
	}

	resp = &ChatResponse{Message: raw}
	if parsed.Message != nil {
		resp.Message = *parsed.Message
	}
	if parsed.Schedule != nil && strings.TrimSpace(parsed.Schedule.ScheduledTime) != "" {
		resp.Schedule = s.applySchedule(ctx, userID, *parsed.Schedule, now)
	}
	return resp, nil
}

func (s *Service) buildPrompt(messages []Message, now time.Time) []Message {
	prompt := strings.Replace(systemPrompt, "{{CURRENT_TIME}}", now.Format(time.RFC3339), 1)
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: prompt})
	for _, m := range messages {
		role := m.Role
		if role != RoleAssistant {
			role = RoleUser
		}
		out = append(out, Message{Role: role, Content: truncate(m.Content, MaxMessageLength)})
	}
	return out
}

func (s *Service) applySchedule(ctx context.Context, userID string, intent ScheduleIntent, now time.Time) *ScheduleResult {
	result := &ScheduleResult{
		Type:          intent.Type,
		Label:         intent.Label,
		ScheduledTime: intent.ScheduledTime,
	}

	at, ok := parseScheduledTime(intent.ScheduledTime, now.Location())
	if !ok {
		result.Reason = "the suggested time could not be understood"
		s.metrics.ChatSchedule(OutcomeInvalid)
		return result
	}

	routine, err := s.scheduler.Schedule(ctx, userID, routines.ScheduleInput{
		Type:  intent.Type,
		Label: intent.Label,
		At:    at,
	})
	switch {
	case err == nil:
		result.Scheduled = true
		result.RoutineID = routine.ID
		result.Type = string(routine.Type)
		result.Label = routine.Label
		result.ScheduledTime = routine.ScheduledTime.Format(time.RFC3339)
		s.metrics.ChatSchedule(OutcomeScheduled)
	case errors.Is(err, routines.ErrNoDog):
		result.Reason = "create a dog profile before scheduling routines"
		s.metrics.ChatSchedule(OutcomeNoDog)
	case errors.Is(err, routines.ErrInvalidInput):
		result.Reason = err.Error()
		s.metrics.ChatSchedule(OutcomeInvalid)
	default:
		slog.Error("Failed to schedule routine from chat", "error", err, "user_id", userID)
		result.Reason = "the routine could not be saved"
		s.metrics.ChatSchedule(OutcomeFailed)
	}
	return result
}

// parseReply decodes the model's JSON reply, tolerating a fenced code block.
func parseReply(raw string) (reply, bool) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return reply{}, false
	}
	return r, true
}

func parseScheduledTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range scheduledTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
