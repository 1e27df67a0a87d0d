package user

import (
	"context"
	"fmt"

	"github.com/go-kanban/internal/application/policy"
	"github.com/go-kanban/internal/domain"
)

const fieldRole = "role"

type Service interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateRole(ctx context.Context, actor domain.Subject, userID string, req domain.UpdateRoleRequest) (*domain.User, error)
}

type userStore interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	repo userStore
}

type ServiceDeps struct {
	UserRepo userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo}
}

func (s *service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateRole sets the role of another account. The new role applies from
// that user's next login; tokens already issued keep the old role until they
// expire.
func (s *service) UpdateRole(ctx context.Context, actor domain.Subject, userID string, req domain.UpdateRoleRequest) (*domain.User, error) {
	if err := policy.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if actor.UserID == userID {
		return nil, fmt.Errorf("admins cannot change their own role: %w", domain.ErrBadRequest)
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleGuest {
		return nil, fmt.Errorf("guest is not an assignable role: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldRole: role.String()}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}
