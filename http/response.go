package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shelfd/shelfd"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// WriteChallenge writes a 401 with the Basic authentication challenge so the
// client knows which scheme to retry with. The body is identical for unknown
// usernames and wrong passwords.
func WriteChallenge(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized", "Incorrect username or password")
}

// HandleError writes the appropriate error response based on the error kind.
// Unclassified errors surface as an opaque 500; the detail is only logged.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, shelfd.ErrInvalidInput) {
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	if errors.Is(err, shelfd.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	if errors.Is(err, shelfd.ErrConflict) {
		WriteError(w, http.StatusConflict, "conflict", "Conflict with existing state")
		return
	}

	if errors.Is(err, shelfd.ErrUnauthorized) {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Incorrect username or password")
		return
	}

	// Default internal error, message stays opaque
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
