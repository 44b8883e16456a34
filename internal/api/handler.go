// Package api provides HTTP handlers for the Pawtine API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zaphkiel07/Pawtine2/internal/identity"
	"github.com/Zaphkiel07/Pawtine2/internal/routines"
)

// maxRequestBodySize caps JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

// Handler serves the routine, owner and dashboard endpoints.
type Handler struct {
	svc         *routines.Service
	backend     string
	chatEnabled bool
}

// NewHandler creates a new Handler over the routine service.
func NewHandler(svc *routines.Service, backend string, chatEnabled bool) *Handler {
	return &Handler{svc: svc, backend: backend, chatEnabled: chatEnabled}
}

// RegisterRoutes registers the API routes (requires identity middleware).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)
		r.Post("/onboarding", h.Onboard)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Get("/dashboard", h.Dashboard)

		r.Route("/routines", func(r chi.Router) {
			r.Get("/", h.ListRoutines)
			r.Post("/", h.CreateRoutine)
			r.Get("/today", h.Today)
			r.Get("/month", h.Month)
			r.Post("/calendar", h.CreateFromCalendar)
			r.Patch("/{id}", h.UpdateRoutine)
			r.Post("/{id}/complete", h.CompleteRoutine)
			r.Post("/{id}/snooze", h.SnoozeRoutine)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// requireUser returns the owner ID or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// decodeJSON reads a bounded JSON body into v or writes 400/413.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
