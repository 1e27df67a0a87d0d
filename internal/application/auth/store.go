package auth

import (
	"context"
	"strings"

	"github.com/go-kanban/internal/domain"
)

// CodeStore holds at most one pending code per email.
//
// Put replaces any previous record in one write. Take deletes the record only
// if it still carries code and returns ErrCodeNotFound otherwise, so of two
// concurrent Takes for the same code exactly one succeeds.
type CodeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	Get(ctx context.Context, email string) (*domain.VerificationCode, error)
	Delete(ctx context.Context, email string) error
	Take(ctx context.Context, email, code string) error
}

// Notifier delivers a code to its owner. Implementations must not fail for
// addresses they do not know.
type Notifier interface {
	SendCode(ctx context.Context, email, code string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type tokenEncoder interface {
	Encode(s domain.Subject) (domain.SessionToken, error)
}

type recorder interface {
	CodeIssued()
	CodeVerified(outcome string)
}

// NormalizeEmail is the identity key form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
