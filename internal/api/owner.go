package api

import (
	"net/http"

	"github.com/Zaphkiel07/Pawtine2/internal/routines"
)

// GetMe returns the current owner and their dog.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	owner, err := h.svc.CurrentOwnerAndDog(r.Context(), userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":   owner.UserID,
		"dog":       owner.Dog,
		"onboarded": owner.Dog != nil,
	})
}

// GetConfig returns the server configuration for the frontend.
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"chat_enabled": h.chatEnabled,
		"backend":      h.backend,
	})
}

// Onboard creates the dog profile and its default routines.
func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in routines.OnboardingInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.svc.Onboard(r.Context(), userID, in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, result)
}

// GetProfile returns the owner and dog profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	profile, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, profile)
}

// UpdateProfile saves profile changes and relabels routines on a dog rename.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in routines.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, profile)
}
