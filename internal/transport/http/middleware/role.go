package middleware

import (
	"errors"
	"net/http"

	"github.com/go-kanban/internal/application/policy"
	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/infrastructure/metrics"
)

// RequireRole admits requests whose Subject has at least the required role.
// Guests below it get 401 so the client can offer a login; known users below
// it get 403.
func RequireRole(required domain.Role, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := policy.Authorize(SubjectFromContext(r.Context()), required)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, domain.ErrUnauthenticated):
				rec.AccessDenied(http.StatusUnauthorized)
				writeJSONError(w, http.StatusUnauthorized, "authentication required", "unauthenticated")
			default:
				rec.AccessDenied(http.StatusForbidden)
				writeJSONError(w, http.StatusForbidden, "forbidden", "forbidden")
			}
		})
	}
}
