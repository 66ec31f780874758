package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/models"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// Fail maps a service error onto a status and error body. Unexpected errors are logged and hidden.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validate.Errs
	switch {
	case errors.As(err, &verrs):
		WriteError(w, http.StatusBadRequest, "validation_failed", "validation failed", verrs)
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, models.ErrDuplicate):
		WriteError(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

// Decode reads a JSON body into v, answering 400 itself when it cannot.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return false
	}
	return true
}
