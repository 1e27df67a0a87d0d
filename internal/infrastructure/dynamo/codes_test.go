package dynamo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-kanban/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCodeTable emulates the login_codes table for PutItem, GetItem and
// DeleteItem, including the "#c = :c" delete condition used by Take.
type fakeCodeTable struct {
	API
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeCodeTable() *fakeCodeTable {
	return &fakeCodeTable{items: map[string]map[string]types.AttributeValue{}}
}

func emailOf(key map[string]types.AttributeValue) string {
	return key[fieldEmail].(*types.AttributeValueMemberS).Value
}

func (f *fakeCodeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[emailOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeCodeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[emailOf(in.Key)]}, nil
}

func (f *fakeCodeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := emailOf(in.Key)
	if in.ConditionExpression != nil {
		item, ok := f.items[email]
		want := in.ExpressionAttributeValues[":c"].(*types.AttributeValueMemberS).Value
		if !ok || item[fieldCode].(*types.AttributeValueMemberS).Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(f.items, email)
	return &dynamodb.DeleteItemOutput{}, nil
}

func newCode(email, code string) *domain.VerificationCode {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.VerificationCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
}

func TestCodeStore_PutGet_RoundTrip(t *testing.T) {
	table := newFakeCodeTable()
	s := NewCodeStore(table, "login_codes")
	ctx := context.Background()

	want := newCode("a@b.com", "123456")
	require.NoError(t, s.Put(ctx, want))

	// expires_at is a number so the TTL attribute works.
	_, isNumber := table.items["a@b.com"][fieldExpiresAt].(*types.AttributeValueMemberN)
	assert.True(t, isNumber)

	got, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Code)
	assert.Equal(t, want.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestCodeStore_Get_Missing(t *testing.T) {
	s := NewCodeStore(newFakeCodeTable(), "login_codes")
	_, err := s.Get(context.Background(), "nobody@b.com")
	assert.True(t, errors.Is(err, domain.ErrCodeNotFound))
}

func TestCodeStore_Put_OverwritesPrevious(t *testing.T) {
	s := NewCodeStore(newFakeCodeTable(), "login_codes")
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newCode("a@b.com", "111111")))
	require.NoError(t, s.Put(ctx, newCode("a@b.com", "222222")))

	got, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)
}

func TestCodeStore_Take(t *testing.T) {
	s := NewCodeStore(newFakeCodeTable(), "login_codes")
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newCode("a@b.com", "123456")))

	err := s.Take(ctx, "a@b.com", "654321")
	assert.True(t, errors.Is(err, domain.ErrCodeNotFound), "a different code must not be taken")

	require.NoError(t, s.Take(ctx, "a@b.com", "123456"))

	err = s.Take(ctx, "a@b.com", "123456")
	assert.True(t, errors.Is(err, domain.ErrCodeNotFound), "second take must fail")

	_, err = s.Get(ctx, "a@b.com")
	assert.True(t, errors.Is(err, domain.ErrCodeNotFound))
}

func TestCodeStore_Delete(t *testing.T) {
	s := NewCodeStore(newFakeCodeTable(), "login_codes")
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newCode("a@b.com", "123456")))
	require.NoError(t, s.Delete(ctx, "a@b.com"))
	require.NoError(t, s.Delete(ctx, "a@b.com"))

	_, err := s.Get(ctx, "a@b.com")
	assert.True(t, errors.Is(err, domain.ErrCodeNotFound))
}
