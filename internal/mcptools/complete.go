package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Zaphkiel07/Pawtine2/internal/routines"
)

// CompleteRoutineTool handles the complete_routine MCP tool.
type CompleteRoutineTool struct {
	svc    *routines.Service
	userID string
}

// NewCompleteRoutineTool creates a CompleteRoutineTool.
func NewCompleteRoutineTool(svc *routines.Service, userID string) *CompleteRoutineTool {
	return &CompleteRoutineTool{svc: svc, userID: userID}
}

// Definition returns the MCP tool definition for complete_routine.
func (t *CompleteRoutineTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_routine",
		mcp.WithDescription("Mark a routine done for today. Calling it again the same day is harmless."),
		mcp.WithString("routine_id",
			mcp.Required(),
			mcp.Description("Routine ID from list_today"),
		),
	)
}

// Handle processes the complete_routine tool call.
func (t *CompleteRoutineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("routine_id", "")
	if id == "" {
		return mcp.NewToolResultError("'routine_id' is required"), nil
	}

	entry, err := t.svc.MarkComplete(ctx, t.userID, id)
	if err != nil {
		return toolError("complete routine", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Routine %s marked %s on %s", id, entry.Status, entry.OccurredOn)), nil
}

// SnoozeRoutineTool handles the snooze_routine MCP tool.
type SnoozeRoutineTool struct {
	svc    *routines.Service
	userID string
}

// NewSnoozeRoutineTool creates a SnoozeRoutineTool.
func NewSnoozeRoutineTool(svc *routines.Service, userID string) *SnoozeRoutineTool {
	return &SnoozeRoutineTool{svc: svc, userID: userID}
}

// Definition returns the MCP tool definition for snooze_routine.
func (t *SnoozeRoutineTool) Definition() mcp.Tool {
	return mcp.NewTool("snooze_routine",
		mcp.WithDescription("Push a routine back to now plus the given hours."),
		mcp.WithString("routine_id",
			mcp.Required(),
			mcp.Description("Routine ID from list_today"),
		),
		mcp.WithNumber("hours",
			mcp.Description("Hours to snooze (default: 1)"),
		),
	)
}

// Handle processes the snooze_routine tool call.
func (t *SnoozeRoutineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("routine_id", "")
	if id == "" {
		return mcp.NewToolResultError("'routine_id' is required"), nil
	}

	routine, err := t.svc.Snooze(ctx, t.userID, id, snoozeHours(req.GetArguments()["hours"]))
	if err != nil {
		return toolError("snooze routine", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Snoozed %q until %s", routine.Label, formatTime(routine.ScheduledTime))), nil
}

// snoozeHours reads "hours" as a JSON number or numeric string.
func snoozeHours(v interface{}) float64 {
	switch h := v.(type) {
	case float64: // JSON numbers decode as float64
		return routines.SnoozeHoursOrDefault(h)
	case string:
		return routines.ParseSnoozeHours(h)
	}
	return routines.DefaultSnoozeHours
}
