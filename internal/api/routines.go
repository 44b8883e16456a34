package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
)

// ListRoutines returns every routine of the owner's dog.
func (h *Handler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.All(r.Context(), userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, list)
}

// CreateRoutine adds a routine from the settings form.
func (h *Handler) CreateRoutine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in routines.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	routine, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, routine)
}

// Today returns the daily checklist.
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Daily(r.Context(), userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, list)
}

// Month returns the calendar tasks of the month containing ?date=, or of the
// current month.
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ref := h.svc.Now()
	if date := r.URL.Query().Get("date"); date != "" {
		parsed, err := schedule.ParseDay(date, ref.Location())
		if err != nil {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		ref = parsed
	}

	tasks, err := h.svc.Monthly(r.Context(), userID, ref)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, tasks)
}

// CreateFromCalendar adds a routine on a calendar date.
func (h *Handler) CreateFromCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in routines.CalendarInput
	if !decodeJSON(w, r, &in) {
		return
	}

	routine, err := h.svc.CreateFromCalendar(r.Context(), userID, in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, routine)
}

// UpdateRoutine edits label, time or status.
func (h *Handler) UpdateRoutine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in routines.SettingsInput
	if !decodeJSON(w, r, &in) {
		return
	}

	routine, err := h.svc.UpdateSettings(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, routine)
}

// CompleteRoutine marks the routine done for today.
func (h *Handler) CompleteRoutine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entry, err := h.svc.MarkComplete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, entry)
}

// SnoozeRoutine pushes the routine back by "hours", read from a form field or
// a JSON body.
func (h *Handler) SnoozeRoutine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	routine, err := h.svc.Snooze(r.Context(), userID, chi.URLParam(r, "id"), snoozeHours(w, r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, routine)
}

// snoozeHours never fails; unreadable input means the default snooze.
func snoozeHours(w http.ResponseWriter, r *http.Request) float64 {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var body struct {
			Hours json.RawMessage `json:"hours"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return routines.DefaultSnoozeHours
		}
		return routines.ParseSnoozeHours(strings.Trim(string(body.Hours), `"`))
	}
	return routines.ParseSnoozeHours(r.FormValue("hours"))
}

// Dashboard returns the weekly report for the week containing ?week=.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	dashboard, err := h.svc.Dashboard(r.Context(), userID, r.URL.Query().Get("week"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, dashboard)
}
