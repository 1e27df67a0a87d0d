package dynamo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeTable is a single-table stand-in keyed by one string hash key. It
// honours the attribute_exists / attribute_not_exists conditions the repos
// use, applies SET update expressions, answers GSI queries by filtering,
// and pages Scan results pageSize items at a time.
type fakeTable struct {
	API
	mu       sync.Mutex
	hashKey  string
	pageSize int
	items    map[string]map[string]types.AttributeValue
	queries  []*dynamodb.QueryInput
	scans    int
}

func newFakeTable(hashKey string, pageSize int) *fakeTable {
	return &fakeTable{hashKey: hashKey, pageSize: pageSize, items: map[string]map[string]types.AttributeValue{}}
}

func sval(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// checkCondition evaluates the two condition forms used by the repos.
func checkCondition(cond *string, exists bool) error {
	if cond == nil {
		return nil
	}
	switch {
	case strings.HasPrefix(*cond, "attribute_not_exists") && exists,
		strings.HasPrefix(*cond, "attribute_exists") && !exists:
		return &types.ConditionalCheckFailedException{}
	}
	return nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sval(in.Item[f.hashKey])
	_, exists := f.items[key]
	if err := checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[sval(in.Key[f.hashKey])]}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sval(in.Key[f.hashKey])
	_, exists := f.items[key]
	if err := checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sval(in.Key[f.hashKey])
	item, exists := f.items[key]
	if err := checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	for _, part := range strings.Split(strings.TrimPrefix(*in.UpdateExpression, "SET "), ", ") {
		name, value, _ := strings.Cut(part, " = ")
		item[in.ExpressionAttributeNames[name]] = in.ExpressionAttributeValues[value]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, in)
	attr := in.ExpressionAttributeNames["#a"]
	want := sval(in.ExpressionAttributeValues[":v"])
	var out []map[string]types.AttributeValue
	for _, k := range f.sortedKeys() {
		if sval(f.items[k][attr]) == want {
			out = append(out, f.items[k])
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeTable) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	keys := f.sortedKeys()
	start := 0
	if in.ExclusiveStartKey != nil {
		after := sval(in.ExclusiveStartKey[f.hashKey])
		start = sort.SearchStrings(keys, after) + 1
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}
	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = strKey(f.hashKey, keys[end-1])
	}
	return out, nil
}

func (f *fakeTable) sortedKeys() []string {
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
