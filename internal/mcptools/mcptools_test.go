package mcptools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

const ownerID = "owner-1"

var toolNow = time.Date(2024, time.January, 3, 8, 15, 0, 0, time.UTC)

// newTestService returns a routine service over a memory store with a dog.
func newTestService(t *testing.T) *routines.Service {
	t.Helper()
	clock := schedule.FixedClock(toolNow)
	repo := store.NewMemory(clock)
	ctx := context.Background()
	if err := repo.UpsertUser(ctx, &domain.User{ID: ownerID, CreatedAt: toolNow}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := repo.UpsertDog(ctx, &domain.Dog{ID: "dog-1", UserID: ownerID, Name: "Luna", CreatedAt: toolNow}); err != nil {
		t.Fatalf("seed dog: %v", err)
	}
	return routines.NewService(repo, routines.WithClock(clock))
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustNotError(t *testing.T, r *mcp.CallToolResult, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
}

func mustBeToolError(t *testing.T, r *mcp.CallToolResult, err error, wantSubstr string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !r.IsError {
		t.Fatalf("expected tool error containing %q, got success: %s", wantSubstr, resultText(r))
	}
	if !strings.Contains(resultText(r), wantSubstr) {
		t.Errorf("error text %q does not contain %q", resultText(r), wantSubstr)
	}
}

func scheduleOne(t *testing.T, svc *routines.Service, label, when string) *domain.Routine {
	t.Helper()
	r, err := svc.Schedule(context.Background(), ownerID, routines.ScheduleInput{
		Type:  "feed",
		Label: label,
		At:    schedule.Normalize(when, toolNow),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return r
}

func TestDefinitions(t *testing.T) {
	svc := newTestService(t)
	cases := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewListTodayTool(svc, ownerID).Definition(), "list_today", nil},
		{NewScheduleRoutineTool(svc, ownerID).Definition(), "schedule_routine", []string{"type", "scheduled_time"}},
		{NewCompleteRoutineTool(svc, ownerID).Definition(), "complete_routine", []string{"routine_id"}},
		{NewSnoozeRoutineTool(svc, ownerID).Definition(), "snooze_routine", []string{"routine_id"}},
		{NewWeeklyReportTool(svc, ownerID).Definition(), "weekly_report", nil},
	}
	for _, tc := range cases {
		if tc.def.Name != tc.name {
			t.Errorf("tool name = %q, want %q", tc.def.Name, tc.name)
		}
		for _, want := range tc.required {
			found := false
			for _, r := range tc.def.InputSchema.Required {
				if r == want {
					found = true
				}
			}
			if !found {
				t.Errorf("%s: %q should be required", tc.name, want)
			}
		}
	}
}

func TestListToday(t *testing.T) {
	svc := newTestService(t)
	tool := NewListTodayTool(svc, ownerID)

	result, err := tool.Handle(context.Background(), makeReq(nil))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "No routines yet") {
		t.Errorf("expected empty message, got: %s", resultText(result))
	}

	r := scheduleOne(t, svc, "Luna breakfast", "07:30")
	result, err = tool.Handle(context.Background(), makeReq(nil))
	mustNotError(t, result, err)
	text := resultText(result)
	if !strings.Contains(text, "[ ] 07:30 Luna breakfast (feed) id="+r.ID) {
		t.Errorf("unexpected listing: %s", text)
	}
}

func TestScheduleRoutine(t *testing.T) {
	svc := newTestService(t)
	tool := NewScheduleRoutineTool(svc, ownerID)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"type":           "walk",
		"scheduled_time": "2024-01-03T17:00:00Z",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), `"Luna walk" (walk)`) {
		t.Errorf("unexpected result: %s", resultText(result))
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"type": "walk"}))
	mustBeToolError(t, result, err, "scheduled_time")
}

func TestCompleteAndSnoozeRoutine(t *testing.T) {
	svc := newTestService(t)
	r := scheduleOne(t, svc, "Luna dinner", "18:00")

	complete := NewCompleteRoutineTool(svc, ownerID)
	result, err := complete.Handle(context.Background(), makeReq(map[string]interface{}{"routine_id": r.ID}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "marked done on 2024-01-03") {
		t.Errorf("unexpected result: %s", resultText(result))
	}

	result, err = complete.Handle(context.Background(), makeReq(map[string]interface{}{"routine_id": "missing"}))
	mustBeToolError(t, result, err, "routine not found")

	snooze := NewSnoozeRoutineTool(svc, ownerID)
	result, err = snooze.Handle(context.Background(), makeReq(map[string]interface{}{"routine_id": r.ID, "hours": 2.0}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "Wed Jan 3 10:15") {
		t.Errorf("expected now+2h, got: %s", resultText(result))
	}
}

func TestSnoozeHours(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
	}{
		{nil, 1},
		{3.0, 3},
		{-2.0, 1},
		{"1.5", 1.5},
		{"soon", 1},
	}
	for _, tc := range cases {
		if got := snoozeHours(tc.in); got != tc.want {
			t.Errorf("snoozeHours(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWeeklyReport(t *testing.T) {
	svc := newTestService(t)
	r := scheduleOne(t, svc, "Luna breakfast", "07:30")
	if _, err := svc.MarkComplete(context.Background(), ownerID, r.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	tool := NewWeeklyReportTool(svc, ownerID)
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"week": "2024-01-03"}))
	mustNotError(t, result, err)
	text := resultText(result)
	if !strings.Contains(text, "Completion rate: 100%") {
		t.Errorf("unexpected report: %s", text)
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"week": "nope"}))
	mustBeToolError(t, result, err, "invalid input")
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(newTestService(t), ownerID, "test")
	if s == nil {
		t.Fatal("expected server")
	}
}
