// Package mcptools exposes the routine service as MCP tools so LLM clients can
// read and manage one owner's routines over stdio.
package mcptools

import (
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/routines"
)

const instructions = `Pawtine tracks a dog's feeding, water and walk routines.
Call list_today first to see routine IDs, then complete_routine or snooze_routine.
Use schedule_routine for new one-off or recurring care tasks and weekly_report for progress.`

// NewServer builds an MCP server whose tools act for userID.
func NewServer(svc *routines.Service, userID, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"pawtine",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	today := NewListTodayTool(svc, userID)
	s.AddTool(today.Definition(), today.Handle)

	sched := NewScheduleRoutineTool(svc, userID)
	s.AddTool(sched.Definition(), sched.Handle)

	complete := NewCompleteRoutineTool(svc, userID)
	s.AddTool(complete.Definition(), complete.Handle)

	snooze := NewSnoozeRoutineTool(svc, userID)
	s.AddTool(snooze.Definition(), snooze.Handle)

	report := NewWeeklyReportTool(svc, userID)
	s.AddTool(report.Definition(), report.Handle)

	return s
}

// toolError reports a service failure as a tool result so the client model
// can read it.
func toolError(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

func formatRoutine(r domain.Routine) string {
	return fmt.Sprintf("%s %s (%s) id=%s", r.ScheduledTime.Format("15:04"), r.Label, r.Type, r.ID)
}

func formatTime(t time.Time) string {
	return t.Format("Mon Jan 2 15:04")
}

func bullet(sb *strings.Builder, format string, args ...interface{}) {
	sb.WriteString("- ")
	fmt.Fprintf(sb, format, args...)
	sb.WriteString("\n")
}
