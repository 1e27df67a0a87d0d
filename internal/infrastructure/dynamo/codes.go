package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-kanban/internal/domain"
)

// CodeStore keeps pending login codes.
// PK: email. expires_at (Unix seconds) is the table TTL attribute, so DynamoDB
// eventually removes codes nobody verified.
type CodeStore struct {
	client    API
	tableName string
}

func NewCodeStore(client API, tableName string) *CodeStore {
	return &CodeStore{client: client, tableName: tableName}
}

// Put replaces any pending code for the email in a single write.
func (s *CodeStore) Put(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal login code: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	return err
}

func (s *CodeStore) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("login code: %w", domain.ErrCodeNotFound)
	}
	var v domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CodeStore) Delete(ctx context.Context, email string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}

// Take deletes the pending code only if it still equals code. A missing item
// or a replaced code fails the condition and reports ErrCodeNotFound, so of two
// concurrent takes only one succeeds.
func (s *CodeStore) Take(ctx context.Context, email, code string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      strKey(fieldEmail, email),
		ConditionExpression:      aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{"#c": fieldCode},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("login code already used or replaced: %w", domain.ErrCodeNotFound)
	}
	return err
}
