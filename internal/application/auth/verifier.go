package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/infrastructure/metrics"
)

// Verifier checks a submitted code against the pending one.
type Verifier struct {
	store   CodeStore
	now     func() time.Time
	metrics recorder
}

func NewVerifier(store CodeStore, now func() time.Time, metrics recorder) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{store: store, now: now, metrics: metrics}
}

// Verify consumes the pending code for email when code matches it and
// returns the normalized email. A wrong code leaves the record in place.
// Errors: ErrCodeNotFound, ErrCodeExpired, ErrCodeMismatch.
func (v *Verifier) Verify(ctx context.Context, email, code string) (string, error) {
	email = NormalizeEmail(email)
	rec, err := v.store.Get(ctx, email)
	if errors.Is(err, domain.ErrCodeNotFound) {
		v.metrics.CodeVerified(metrics.OutcomeNotFound)
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("load login code: %w", err)
	}

	if rec.Expired(v.now()) {
		// Take rather than Delete: a fresh code issued meanwhile must survive.
		if err := v.store.Take(ctx, email, rec.Code); err != nil && !errors.Is(err, domain.ErrCodeNotFound) {
			slog.WarnContext(ctx, "failed to delete expired login code", "email", email, "err", err)
		}
		v.metrics.CodeVerified(metrics.OutcomeExpired)
		return "", fmt.Errorf("login code for %s: %w", email, domain.ErrCodeExpired)
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		v.metrics.CodeVerified(metrics.OutcomeMismatch)
		return "", fmt.Errorf("login code for %s: %w", email, domain.ErrCodeMismatch)
	}

	if err := v.store.Take(ctx, email, code); err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			v.metrics.CodeVerified(metrics.OutcomeNotFound)
			return "", err
		}
		return "", fmt.Errorf("consume login code: %w", err)
	}
	v.metrics.CodeVerified(metrics.OutcomeOK)
	return email, nil
}
