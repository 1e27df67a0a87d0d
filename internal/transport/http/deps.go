package http

import (
	"context"

	"github.com/go-kanban/internal/application/auth"
	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// TaskRepository is the minimal interface the router requires from a task store.
type TaskRepository interface {
	Put(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, taskID string, updates map[string]interface{}) error
	Delete(ctx context.Context, taskID string) error
}

// TokenCodec turns subjects into session tokens and back.
type TokenCodec interface {
	Encode(s domain.Subject) (domain.SessionToken, error)
	Decode(value string) (domain.Subject, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	CodeStore auth.CodeStore
	Notifier  auth.Notifier
	UserRepo  UserRepository
	TaskRepo  TaskRepository
	Codec     TokenCodec
	// Metrics defaults to a no-op recorder. Gatherer, when set, is served
	// on /metrics.
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
}
