package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-kanban/internal/domain"
)

const codeSpace = 1000000

// Issuer creates login codes and hands them to the notification channel.
type Issuer struct {
	store    CodeStore
	notifier Notifier
	ttl      time.Duration
	now      func() time.Time
	metrics  recorder
}

func NewIssuer(store CodeStore, notifier Notifier, ttl time.Duration, now func() time.Time, metrics recorder) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{store: store, notifier: notifier, ttl: ttl, now: now, metrics: metrics}
}

// Issue stores a fresh code for email, replacing any pending one, and sends
// it. Delivery failures are logged and not returned so the caller cannot
// tell known addresses from unknown ones.
func (i *Issuer) Issue(ctx context.Context, email string) (*domain.VerificationCode, error) {
	email = NormalizeEmail(email)
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	// Whole seconds: the DynamoDB store keeps expires_at as unix seconds, and
	// every backend must expire the code at the same instant.
	now := i.now().UTC().Truncate(time.Second)
	v := &domain.VerificationCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.store.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("store login code: %w", err)
	}
	i.metrics.CodeIssued()

	if err := i.notifier.SendCode(ctx, email, code); err != nil {
		slog.ErrorContext(ctx, "failed to deliver login code", "email", email, "err", err)
	}
	return v, nil
}

// generateCode returns a uniformly random 6-digit decimal string.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate login code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
