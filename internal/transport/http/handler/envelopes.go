package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-identity-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope is the 201 response body for a new registration.
type RegisterEnvelope struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TokenEnvelope wraps the login response.
type TokenEnvelope struct {
	Token string `json:"token"`
}

// IdentityEnvelope is the public-facing identity of the authenticated account.
type IdentityEnvelope struct {
	Email string `json:"email"`
}

// AvatarEnvelope wraps the avatar-update response.
type AvatarEnvelope struct {
	AvatarURL string `json:"avatarURL"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeServiceError maps domain sentinel errors to HTTP statuses. Anything
// unrecognized is an internal error and its detail stays out of the response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
