package mcptools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Zaphkiel07/Pawtine2/internal/routines"
)

// ListTodayTool handles the list_today MCP tool.
type ListTodayTool struct {
	svc    *routines.Service
	userID string
}

// NewListTodayTool creates a ListTodayTool.
func NewListTodayTool(svc *routines.Service, userID string) *ListTodayTool {
	return &ListTodayTool{svc: svc, userID: userID}
}

// Definition returns the MCP tool definition for list_today.
func (t *ListTodayTool) Definition() mcp.Tool {
	return mcp.NewTool("list_today",
		mcp.WithDescription("List today's active routines in time order with their completion state and IDs."),
	)
}

// Handle processes the list_today tool call.
func (t *ListTodayTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := t.svc.Daily(ctx, t.userID)
	if err != nil {
		return toolError("list routines", err), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No routines yet. Finish onboarding or call schedule_routine to add one."), nil
	}

	var sb strings.Builder
	sb.WriteString("# Today\n\n")
	for _, r := range list {
		mark := "[ ]"
		if r.Today != nil {
			mark = "[" + string(r.Today.Status) + "]"
		}
		bullet(&sb, "%s %s", mark, formatRoutine(r.Routine))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
