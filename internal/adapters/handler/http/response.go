package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrVotingClosed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTopicNotFound), errors.Is(err, domain.ErrBusNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTopicID),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrBusNotSelected),
		errors.Is(err, domain.ErrInvalidWindow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err without leaking internal details.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, domain.ErrInternal.Error())
		return
	}
	writeError(w, status, err.Error())
}
