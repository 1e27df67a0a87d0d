package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kanban/internal/domain"
	jwtinfra "github.com/go-kanban/internal/infrastructure/jwt"
	"github.com/go-kanban/internal/infrastructure/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type serviceFixture struct {
	svc      Service
	users    *mockUserStore
	store    *memstore.CodeStore
	notifier *fakeNotifier
	codec    *jwtinfra.Codec
}

func newServiceFixture(adminEmail string) *serviceFixture {
	f := &serviceFixture{
		users:    new(mockUserStore),
		store:    memstore.NewCodeStore(),
		notifier: &fakeNotifier{},
		codec:    jwtinfra.NewUnsignedCodec(24 * time.Hour),
	}
	f.svc = NewService(ServiceDeps{
		CodeStore:           f.store,
		Notifier:            f.notifier,
		UserRepo:            f.users,
		Codec:               f.codec,
		CodeTTL:             10 * time.Minute,
		BootstrapAdminEmail: adminEmail,
	})
	return f
}

func (f *serviceFixture) requestCode(t *testing.T, email string) string {
	t.Helper()
	require.NoError(t, f.svc.RequestCode(context.Background(), email))
	return f.notifier.last().code
}

func TestLogin_ExistingUser_TokenCarriesStoredRole(t *testing.T) {
	f := newServiceFixture("")
	ctx := context.Background()
	existing := &domain.User{UserID: "01ADMIN", Email: "a@b.com", Role: "admin", Validated: true}
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(existing, nil)

	code := f.requestCode(t, "a@b.com")
	res, err := f.svc.Login(ctx, "a@b.com", code)
	require.NoError(t, err)

	assert.Equal(t, domain.Subject{UserID: "01ADMIN", Role: domain.RoleAdmin, Validated: true}, res.Subject)
	decoded, err := f.codec.Decode(res.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, res.Subject, decoded)
	assert.Equal(t, res.Token.IssuedAt.Add(24*time.Hour), res.Token.ExpiresAt)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_NewUser_CreatedAsValidatedUser(t *testing.T) {
	f := newServiceFixture("")
	ctx := context.Background()
	f.users.On("GetByEmail", mock.Anything, "new@b.com").Return(nil, domain.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "new@b.com" && u.Role == "user" && u.UserID != ""
	})).Return(nil)
	f.users.On("Update", mock.Anything, mock.Anything, map[string]interface{}{"validated": true}).Return(nil)

	code := f.requestCode(t, "new@b.com")
	res, err := f.svc.Login(ctx, "NEW@b.com", code)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleUser, res.Subject.Role)
	assert.True(t, res.Subject.Validated)
	assert.True(t, res.User.Validated)
	f.users.AssertExpectations(t)
}

func TestLogin_BootstrapAdmin(t *testing.T) {
	f := newServiceFixture("Boss@B.com")
	f.users.On("GetByEmail", mock.Anything, "boss@b.com").Return(nil, domain.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool { return u.Role == "admin" })).Return(nil)
	f.users.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	code := f.requestCode(t, "boss@b.com")
	res, err := f.svc.Login(context.Background(), "boss@b.com", code)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.Subject.Role)
}

func TestLogin_ConcurrentSignupRereadsUser(t *testing.T) {
	f := newServiceFixture("")
	winner := &domain.User{UserID: "01WIN", Email: "a@b.com", Role: "user", Validated: true}
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound).Once()
	f.users.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(winner, nil).Once()

	code := f.requestCode(t, "a@b.com")
	res, err := f.svc.Login(context.Background(), "a@b.com", code)
	require.NoError(t, err)
	assert.Equal(t, "01WIN", res.Subject.UserID)
}

func TestLogin_WrongCode_NoUserLookup(t *testing.T) {
	f := newServiceFixture("")
	code := f.requestCode(t, "a@b.com")

	_, err := f.svc.Login(context.Background(), "a@b.com", wrongCodeFor(code))
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
	f.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestLogin_UserStoreError(t *testing.T) {
	f := newServiceFixture("")
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, errors.New("dynamo unavailable"))

	code := f.requestCode(t, "a@b.com")
	_, err := f.svc.Login(context.Background(), "a@b.com", code)
	assert.ErrorContains(t, err, "dynamo unavailable")
}

func TestLogin_CorruptStoredRole(t *testing.T) {
	f := newServiceFixture("")
	f.users.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "01U", Email: "a@b.com", Role: "root", Validated: true}, nil)

	code := f.requestCode(t, "a@b.com")
	_, err := f.svc.Login(context.Background(), "a@b.com", code)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrBadRequest))
}
