package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrRoutineNotFound), errors.Is(err, store.ErrDogNotFound):
		return http.StatusNotFound
	case errors.Is(err, routines.ErrNoDog):
		return http.StatusPreconditionFailed
	case errors.Is(err, routines.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes err with its mapped status. Backend details are logged,
// not returned.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		Error(w, status, "internal error")
		return
	}
	Error(w, status, err.Error())
}
