package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/infrastructure/metrics"
)

type contextKey string

const subjectKey contextKey = "subject"

type tokenDecoder interface {
	Decode(value string) (domain.Subject, error)
}

// Session resolves the request's Subject from the session cookie and stores
// it in the context. It never rejects a request: a missing cookie means guest,
// and an expired or malformed token is cleared and also means guest. Only an
// error outside those two results in a 500.
func Session(dec tokenDecoder, cookie CookieConfig, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := domain.Anonymous()

			if c, err := r.Cookie(cookie.Name); err == nil && c.Value != "" {
				s, err := dec.Decode(c.Value)
				switch {
				case err == nil:
					subject = s
				case errors.Is(err, domain.ErrTokenExpired):
					rec.TokenRejected(metrics.ReasonExpired)
					ClearSessionCookie(w, cookie)
				case errors.Is(err, domain.ErrMalformedToken):
					rec.TokenRejected(metrics.ReasonMalformed)
					slog.DebugContext(r.Context(), "discarding session token", "err", err)
					ClearSessionCookie(w, cookie)
				default:
					slog.ErrorContext(r.Context(), "session token decode failed", "err", err)
					writeJSONError(w, http.StatusInternalServerError, "internal server error", "")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

// WithSubject returns a copy of ctx carrying s.
func WithSubject(ctx context.Context, s domain.Subject) context.Context {
	return context.WithValue(ctx, subjectKey, s)
}

// SubjectFromContext returns the request's Subject, or a guest when the
// Session middleware did not run.
func SubjectFromContext(ctx context.Context) domain.Subject {
	if s, ok := ctx.Value(subjectKey).(domain.Subject); ok {
		return s
	}
	return domain.Anonymous()
}
