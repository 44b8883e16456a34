package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Zaphkiel07/Pawtine2/internal/routines"
)

// WeeklyReportTool handles the weekly_report MCP tool.
type WeeklyReportTool struct {
	svc    *routines.Service
	userID string
}

// NewWeeklyReportTool creates a WeeklyReportTool.
func NewWeeklyReportTool(svc *routines.Service, userID string) *WeeklyReportTool {
	return &WeeklyReportTool{svc: svc, userID: userID}
}

// Definition returns the MCP tool definition for weekly_report.
func (t *WeeklyReportTool) Definition() mcp.Tool {
	return mcp.NewTool("weekly_report",
		mcp.WithDescription("Summarize one week of routine history: per-day completions, completion rate, longest streak and water hit rate."),
		mcp.WithString("week",
			mcp.Description("Any date (YYYY-MM-DD) inside the week to report; defaults to the current week"),
		),
	)
}

// Handle processes the weekly_report tool call.
func (t *WeeklyReportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dash, err := t.svc.Dashboard(ctx, t.userID, req.GetString("week", ""))
	if err != nil {
		return toolError("build weekly report", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Week of %s\n\n", dash.WeekStart)
	for _, d := range dash.Days {
		bullet(&sb, "%s %s: %d/%d", d.Label, d.Day, d.Completed, d.Total)
	}
	fmt.Fprintf(&sb, "\nCompletion rate: %d%%\n", dash.CompletionRate)
	fmt.Fprintf(&sb, "Longest streak: %d days\n", dash.LongestStreak)
	fmt.Fprintf(&sb, "Water hit rate: %s\n", dash.WaterHitRate)
	return mcp.NewToolResultText(sb.String()), nil
}
