package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/infrastructure/metrics"
	"github.com/go-kanban/internal/pkg/id"
)

// LoginResult is what a successful Login hands back to the transport layer.
type LoginResult struct {
	Token   domain.SessionToken
	Subject domain.Subject
	User    *domain.User
}

type Service interface {
	RequestCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, code string) (*LoginResult, error)
}

type service struct {
	issuer     *Issuer
	verifier   *Verifier
	users      userStore
	codec      tokenEncoder
	adminEmail string
	now        func() time.Time
}

type ServiceDeps struct {
	CodeStore CodeStore
	Notifier  Notifier
	UserRepo  userStore
	Codec     tokenEncoder
	CodeTTL   time.Duration
	// BootstrapAdminEmail gets the admin role when its account is created.
	BootstrapAdminEmail string
	Metrics             recorder
	Now                 func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	var rec recorder = metrics.Nop{}
	if deps.Metrics != nil {
		rec = deps.Metrics
	}
	return &service{
		issuer:     NewIssuer(deps.CodeStore, deps.Notifier, deps.CodeTTL, now, rec),
		verifier:   NewVerifier(deps.CodeStore, now, rec),
		users:      deps.UserRepo,
		codec:      deps.Codec,
		adminEmail: NormalizeEmail(deps.BootstrapAdminEmail),
		now:        now,
	}
}

func (s *service) RequestCode(ctx context.Context, email string) error {
	_, err := s.issuer.Issue(ctx, email)
	return err
}

// Login verifies the code, loads or creates the account and mints a session
// token for it.
func (s *service) Login(ctx context.Context, email, code string) (*LoginResult, error) {
	email, err := s.verifier.Verify(ctx, email, code)
	if err != nil {
		return nil, err
	}

	u, err := s.findOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.Validated {
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{"validated": true}); err != nil {
			return nil, fmt.Errorf("mark user validated: %w", err)
		}
		u.Validated = true
	}

	role, err := domain.ParseRole(u.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s has unusable role %q", u.UserID, u.Role)
	}
	subject := domain.Subject{UserID: u.UserID, Role: role, Validated: u.Validated}
	tok, err := s.codec.Encode(subject)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, Subject: subject, User: u}, nil
}

func (s *service) findOrCreate(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	role := domain.RoleUser
	if s.adminEmail != "" && email == s.adminEmail {
		role = domain.RoleAdmin
	}
	now := s.now().UTC()
	u = &domain.User{
		UserID:    id.NewAt(now),
		Email:     email,
		Role:      role.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.users.Create(ctx, u)
	if errors.Is(err, domain.ErrConflict) {
		// Another login for the same email created the account first.
		return s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
