package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// SessionEnvelope describes the caller's identity. ExpiresAt and User are
// only set right after a login.
type SessionEnvelope struct {
	Subject       domain.Subject `json:"subject"`
	Authenticated bool           `json:"authenticated"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	User          *domain.User   `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: code})
}

// httpError maps domain sentinels to HTTP statuses. Anything unrecognised is
// logged and reported as a bare 500.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		writeErrorCode(w, http.StatusUnauthorized, "no pending login code, request a new one", "code_not_found")
	case errors.Is(err, domain.ErrCodeExpired):
		writeErrorCode(w, http.StatusUnauthorized, "login code expired, request a new one", "code_expired")
	case errors.Is(err, domain.ErrCodeMismatch):
		writeErrorCode(w, http.StatusUnauthorized, "login code does not match", "code_mismatch")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeErrorCode(w, http.StatusUnauthorized, "authentication required", "unauthenticated")
	case errors.Is(err, domain.ErrForbidden):
		writeErrorCode(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("unhandled error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeValid reads a JSON body into dst and runs its validate tags. On
// failure it writes the response and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httpError(w, err)
		return false
	}
	return true
}
