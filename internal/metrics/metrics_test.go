package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New("memory")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Post("/api/routines/{id}/complete", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/routines/abc/complete", nil))

	body := scrape(t, m)
	assert.Contains(t, body,
		`pawtine_http_requests_total{code="404",method="POST",route="/api/routines/{id}/complete"} 1`)
	assert.NotContains(t, body, "/api/routines/abc/complete")
}

func TestRoutineOpsAndChat(t *testing.T) {
	m := New("sqlite")
	m.RoutineOp("complete", nil)
	m.RoutineOp("complete", nil)
	m.RoutineOp("snooze", errors.New("boom"))
	m.ChatSchedule("scheduled")
	m.ChatRequest(nil)
	m.SetStoreUp(true)
	m.EventsPublished(3)

	body := scrape(t, m)
	assert.Contains(t, body, `pawtine_routines_operations_total{backend="sqlite",operation="complete",result="ok"} 2`)
	assert.Contains(t, body, `pawtine_routines_operations_total{backend="sqlite",operation="snooze",result="error"} 1`)
	assert.Contains(t, body, `pawtine_chat_schedule_attempts_total{outcome="scheduled"} 1`)
	assert.Contains(t, body, `pawtine_chat_requests_total{result="ok"} 1`)
	assert.Contains(t, body, "pawtine_store_up 1")
	assert.Contains(t, body, "pawtine_events_published_total 3")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RoutineOp("create", nil)
		m.ChatSchedule("invalid")
		m.ChatRequest(errors.New("x"))
		m.SetStoreUp(false)
		m.EventsPublished(1)
	})
}

func TestSeparateRegistries(t *testing.T) {
	a := New("memory")
	b := New("memory")
	a.RoutineOp("create", nil)
	assert.False(t, strings.Contains(scrape(t, b), `operation="create"`))
}
