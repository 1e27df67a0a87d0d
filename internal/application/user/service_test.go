package user

import (
	"context"
	"errors"
	"testing"

	"github.com/go-kanban/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

// --- helpers ---

func newService(us *mockUserStore) Service {
	return NewService(ServiceDeps{UserRepo: us})
}

var admin = domain.Subject{UserID: "a1", Role: domain.RoleAdmin, Validated: true}

// --- tests ---

func TestList(t *testing.T) {
	us := new(mockUserStore)
	us.On("List", mock.Anything).Return([]domain.User{{UserID: "u1"}, {UserID: "u2"}}, nil)

	users, err := newService(us).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestGet_NotFound(t *testing.T) {
	us := new(mockUserStore)
	us.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	_, err := newService(us).Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateRole_Promote(t *testing.T) {
	us := new(mockUserStore)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"role": "admin"}).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: "admin"}, nil)

	u, err := newService(us).UpdateRole(context.Background(), admin, "u1", domain.UpdateRoleRequest{Role: "Admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	us.AssertExpectations(t)
}

func TestUpdateRole_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		actor domain.Subject
		user  string
		role  string
		want  error
	}{
		{"guest caller", domain.Anonymous(), "u1", "admin", domain.ErrUnauthenticated},
		{"user caller", domain.Subject{UserID: "u2", Role: domain.RoleUser}, "u1", "admin", domain.ErrForbidden},
		{"own role", admin, "a1", "user", domain.ErrBadRequest},
		{"guest role", admin, "u1", "guest", domain.ErrBadRequest},
		{"unknown role", admin, "u1", "owner", domain.ErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			us := new(mockUserStore)
			_, err := newService(us).UpdateRole(context.Background(), tc.actor, tc.user, domain.UpdateRoleRequest{Role: tc.role})
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateRole_MissingUser(t *testing.T) {
	us := new(mockUserStore)
	us.On("Update", mock.Anything, "ghost", mock.Anything).Return(domain.ErrNotFound)

	_, err := newService(us).UpdateRole(context.Background(), admin, "ghost", domain.UpdateRoleRequest{Role: "user"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
