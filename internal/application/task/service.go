package task

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kanban/internal/application/policy"
	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/pkg/id"
	"github.com/microcosm-cc/bluemonday"
)

// Attribute and column names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldStatus      = "status"
)

type Service interface {
	List(ctx context.Context) ([]domain.Task, error)
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	Create(ctx context.Context, actor domain.Subject, req domain.CreateTaskRequest) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Subject, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, actor domain.Subject, taskID string) error
}

type taskStore interface {
	List(ctx context.Context) ([]domain.Task, error)
	Get(ctx context.Context, taskID string) (*domain.Task, error)
	Put(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, taskID string, updates map[string]interface{}) error
	Delete(ctx context.Context, taskID string) error
}

type service struct {
	repo      taskStore
	sanitizer *bluemonday.Policy
}

func NewService(repo taskStore) Service {
	return &service{repo: repo, sanitizer: bluemonday.StrictPolicy()}
}

// Limits in characters, matching the request validation and the columns.
const (
	maxTitle       = 200
	maxDescription = 2000
)

// clean strips all markup and returns plain text. The sanitizer escapes
// entities, so its output is unescaped and sanitized again until stable:
// escaped markup such as "&lt;b&gt;" must not survive as "<b>".
func (s *service) clean(v string) string {
	out := strings.TrimSpace(v)
	for i := 0; i < 4; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(out)))
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (s *service) cleanTitle(v string) (string, error) {
	title := s.clean(v)
	if title == "" {
		return "", fmt.Errorf("title is empty after sanitizing: %w", domain.ErrBadRequest)
	}
	if utf8.RuneCountInString(title) > maxTitle {
		return "", fmt.Errorf("title longer than %d characters: %w", maxTitle, domain.ErrBadRequest)
	}
	return title, nil
}

func (s *service) cleanDescription(v string) (string, error) {
	desc := s.clean(v)
	if utf8.RuneCountInString(desc) > maxDescription {
		return "", fmt.Errorf("description longer than %d characters: %w", maxDescription, domain.ErrBadRequest)
	}
	return desc, nil
}

func (s *service) List(ctx context.Context) ([]domain.Task, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.repo.Get(ctx, taskID)
}

func (s *service) Create(ctx context.Context, actor domain.Subject, req domain.CreateTaskRequest) (*domain.Task, error) {
	if err := policy.Authorize(actor, domain.RoleUser); err != nil {
		return nil, err
	}
	title, err := s.cleanTitle(req.Title)
	if err != nil {
		return nil, err
	}
	desc, err := s.cleanDescription(req.Description)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = domain.TaskTodo
	}
	now := time.Now().UTC()
	t := &domain.Task{
		TaskID:      id.NewAt(now),
		Title:       title,
		Description: desc,
		Status:      status,
		OwnerID:     actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update changes the given fields. Only the owner and admins may update.
func (s *service) Update(ctx context.Context, actor domain.Subject, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyTask(actor, t) {
		if err := policy.Authorize(actor, domain.RoleUser); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("task %s belongs to another user: %w", taskID, domain.ErrForbidden)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title, err := s.cleanTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		updates[fieldTitle] = title
	}
	if req.Description != nil {
		desc, err := s.cleanDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		updates[fieldDescription] = desc
	}
	if req.Status != nil {
		updates[fieldStatus] = *req.Status
	}
	if len(updates) == 0 {
		return t, nil
	}
	if err := s.repo.Update(ctx, taskID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, taskID)
}

func (s *service) Delete(ctx context.Context, actor domain.Subject, taskID string) error {
	if err := policy.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, taskID)
}
