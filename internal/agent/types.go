// Package agent implements the chat assistant that answers dog care questions
// and schedules routines from natural language.
package agent

// Message roles accepted by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ChatResponse is the assistant's reply and the outcome of any scheduling it asked for.
type ChatResponse struct {
	Message  string          `json:"message"`
	Schedule *ScheduleResult `json:"schedule,omitempty"`
}

// ScheduleIntent is the scheduling block the model returns alongside its message.
type ScheduleIntent struct {
	Type          string `json:"type"`
	Label         string `json:"label"`
	ScheduledTime string `json:"scheduled_time"`
}

// ScheduleResult reports whether a schedule intent became a routine.
type ScheduleResult struct {
	Scheduled     bool   `json:"scheduled"`
	RoutineID     string `json:"routine_id,omitempty"`
	Type          string `json:"type,omitempty"`
	Label         string `json:"label,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// reply is the JSON shape the system prompt asks the model to produce.
type reply struct {
	Message  *string         `json:"message"`
	Schedule *ScheduleIntent `json:"schedule"`
}
