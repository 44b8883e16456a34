package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
)

// ScheduleRoutineTool handles the schedule_routine MCP tool.
type ScheduleRoutineTool struct {
	svc    *routines.Service
	userID string
}

// NewScheduleRoutineTool creates a ScheduleRoutineTool.
func NewScheduleRoutineTool(svc *routines.Service, userID string) *ScheduleRoutineTool {
	return &ScheduleRoutineTool{svc: svc, userID: userID}
}

// Definition returns the MCP tool definition for schedule_routine.
func (t *ScheduleRoutineTool) Definition() mcp.Tool {
	return mcp.NewTool("schedule_routine",
		mcp.WithDescription("Add a routine for the dog. Unknown types are stored as custom; an empty label uses the dog's name."),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Routine type: feed, walk, water or custom"),
		),
		mcp.WithString("scheduled_time",
			mcp.Required(),
			mcp.Description("When it happens: an ISO-8601 timestamp or HH:MM for today"),
		),
		mcp.WithString("label",
			mcp.Description("Short label, e.g. 'Luna breakfast'"),
		),
	)
}

// Handle processes the schedule_routine tool call.
func (t *ScheduleRoutineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	when, err := req.RequireString("scheduled_time")
	if err != nil || when == "" {
		return mcp.NewToolResultError("'scheduled_time' is required"), nil
	}

	routine, err := t.svc.Schedule(ctx, t.userID, routines.ScheduleInput{
		Type:  typ,
		Label: req.GetString("label", ""),
		At:    schedule.Normalize(when, t.svc.Now()),
	})
	if err != nil {
		return toolError("schedule routine", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Scheduled %q (%s) for %s (ID: %s)",
		routine.Label, routine.Type, formatTime(routine.ScheduledTime), routine.ID)), nil
}
