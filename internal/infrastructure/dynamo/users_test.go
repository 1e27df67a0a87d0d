package dynamo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-kanban/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(id, email string) *domain.User {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.User{UserID: id, Email: email, Role: "user", CreatedAt: now, UpdatedAt: now}
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	repo := NewUserRepo(newFakeTable(fieldEmail, 10), "users")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("u1", "a@b.com")))

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "user", got.Role)
	assert.True(t, got.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestUserRepo_Create_DuplicateEmailConflicts(t *testing.T) {
	table := newFakeTable(fieldEmail, 10)
	repo := NewUserRepo(table, "users")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("u1", "a@b.com")))
	err := repo.Create(ctx, newUser("u2", "a@b.com"))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID, "the first account must survive")
}

func TestUserRepo_GetByEmail_Missing(t *testing.T) {
	repo := NewUserRepo(newFakeTable(fieldEmail, 10), "users")
	_, err := repo.GetByEmail(context.Background(), "nobody@b.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepo_Get_UsesUserIDIndex(t *testing.T) {
	table := newFakeTable(fieldEmail, 10)
	repo := NewUserRepo(table, "users")
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@b.com")))
	require.NoError(t, repo.Create(ctx, newUser("u2", "c@d.com")))

	got, err := repo.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "c@d.com", got.Email)

	require.Len(t, table.queries, 1)
	assert.Equal(t, indexUserID, *table.queries[0].IndexName)
	assert.Equal(t, fieldUserID, table.queries[0].ExpressionAttributeNames["#a"])

	_, err = repo.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepo_Update_KeysByEmail(t *testing.T) {
	table := newFakeTable(fieldEmail, 10)
	repo := NewUserRepo(table, "users")
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@b.com")))

	require.NoError(t, repo.Update(ctx, "u1", map[string]interface{}{"role": "admin", "validated": true}))

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Role)
	assert.True(t, got.Validated)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	assert.Len(t, table.items, 1, "update must not create a second item")
}

func TestUserRepo_Update_Missing(t *testing.T) {
	repo := NewUserRepo(newFakeTable(fieldEmail, 10), "users")
	err := repo.Update(context.Background(), "ghost", map[string]interface{}{"role": "admin"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepo_List_FollowsPages(t *testing.T) {
	table := newFakeTable(fieldEmail, 2)
	repo := NewUserRepo(table, "users")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newUser(fmt.Sprintf("u%d", i), fmt.Sprintf("user%d@b.com", i))))
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)
	assert.Equal(t, 3, table.scans)
}
