package dynamodb

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

var pairRe = regexp.MustCompile(`(#\w+) = (:\w+)`)

// fakeDynamo keeps items in memory and evaluates the equality expressions
// the store builds.
type fakeDynamo struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	queryErr    error
	unprocessed int
	batchCalls  int
	created     bool
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func key(item map[string]types.AttributeValue) string {
	return item[attrPK].(*types.AttributeValueMemberS).Value + "|" + item[attrSK].(*types.AttributeValueMemberS).Value
}

func matches(item map[string]types.AttributeValue, expr *string, names map[string]string, values map[string]types.AttributeValue) bool {
	if expr == nil {
		return true
	}
	for _, m := range pairRe.FindAllStringSubmatch(*expr, -1) {
		got, ok := item[names[m[1]]].(*types.AttributeValueMemberS)
		want, _ := values[m[2]].(*types.AttributeValueMemberS)
		if !ok || want == nil || got.Value != want.Value {
			return false
		}
	}
	return true
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if matches(item, in.KeyConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues) &&
			matches(item, in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
			out = append(out, item)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(in.Item)
	if _, exists := f.items[k]; exists {
		return nil, &types.ConditionalCheckFailedException{Message: stringPtr("exists")}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[key(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: stringPtr("missing")}
	}
	updated := map[string]types.AttributeValue{}
	for k, v := range item {
		updated[k] = v
	}
	for _, m := range pairRe.FindAllStringSubmatch(*in.UpdateExpression, -1) {
		updated[in.ExpressionAttributeNames[m[1]]] = in.ExpressionAttributeValues[m[2]]
	}
	f.items[key(in.Key)] = updated
	return &dynamodb.UpdateItemOutput{Attributes: updated}, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, requests := range in.RequestItems {
		for _, r := range requests {
			if f.unprocessed > 0 {
				f.unprocessed--
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], r)
				continue
			}
			delete(f.items, key(r.DeleteRequest.Key))
		}
	}
	return out, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created {
		return nil, &types.ResourceInUseException{Message: stringPtr("in use")}
	}
	f.created = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeDynamo) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, item := range f.items {
		if item[attrPK].(*types.AttributeValueMemberS).Value == table {
			n++
		}
	}
	return n
}

func stringPtr(s string) *string { return &s }

func newTestStore(t *testing.T) (*Store, *fakeDynamo) {
	t.Helper()
	fake := newFakeDynamo()
	store := NewStore(fake, "factshub", zap.NewNop())
	store.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	store.backoff = time.Millisecond
	return store, fake
}

func TestStore_InsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)

	inserted, err := store.Insert(ctx, ports.TableFacts, []ports.Row{
		{"id": valueobjects.ID("1"), "title": "Octopus", "category": "science", "votesInteresting": 5},
		{"id": float64(2), "title": "Magna Carta", "category": "history", "votesInteresting": 9},
		{"id": "3", "title": "Honey", "category": "science", "votesInteresting": 7},
	})
	require.NoError(t, err)
	require.Len(t, inserted, 3)
	assert.Equal(t, "2024-03-01T12:00:00.000000Z", inserted[0][ports.ColumnCreatedAt])
	assert.Equal(t, "2", inserted[1][ports.ColumnID], "ids are stored as text")
	assert.NotContains(t, inserted[0], attrPK)
	assert.Equal(t, 3, fake.count(ports.TableFacts))

	rows, err := store.Query(ctx, ports.TableFacts, ports.Query{
		Filter: ports.Eq(ports.ColumnCategory, "science"),
		Order:  &ports.Order{Column: "votesInteresting", Ascending: false},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Honey", rows[0]["title"])
	assert.Equal(t, float64(7), rows[0]["votesInteresting"])
	assert.Equal(t, "Octopus", rows[1]["title"])

	rows, err = store.Query(ctx, ports.TableFacts, ports.Query{
		Order: &ports.Order{Column: "title", Ascending: true},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Honey", rows[0]["title"])
	assert.Equal(t, "Magna Carta", rows[1]["title"])

	rows, err = store.Query(ctx, ports.TableFacts, ports.Query{
		Filter: ports.Filter{{Column: "category", Value: "science"}, {Column: "id", Value: "1"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Octopus", rows[0]["title"])

	rows, err = store.Query(ctx, ports.TableComments, ports.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows, "logical tables share the physical table")
}

func TestStore_InsertAssignsIDAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	rows, err := store.Insert(ctx, ports.TableComments, []ports.Row{{"facts_id": 3, "content": "nice"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0][ports.ColumnID])
	assert.Equal(t, "3", rows[0][ports.ColumnFactID])

	_, err = store.Insert(ctx, ports.TableComments, []ports.Row{{"id": rows[0][ports.ColumnID], "content": "again"}})
	assert.ErrorContains(t, err, "already exists")

	_, err = store.Insert(ctx, "users", []ports.Row{{"content": "x"}})
	assert.Error(t, err)
	_, err = store.Insert(ctx, ports.TableFacts, []ports.Row{{"PK": "x"}})
	assert.Error(t, err)
}

func TestStore_InsertAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)

	rows, err := store.Insert(ctx, ports.TableFacts, []ports.Row{
		{"id": "1", "text": "Octopuses have three hearts.", "category": "science"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(0), rows[0]["votesInteresting"])
	assert.Equal(t, float64(0), rows[0]["votesMindblowing"])
	assert.Equal(t, float64(0), rows[0]["votesFalse"])
	assert.Equal(t, "", rows[0]["secret_key"])

	_, err = store.Insert(ctx, ports.TableFacts, []ports.Row{
		{"id": "2", "text": "Voted", "category": "science", "votesInteresting": 5},
	})
	require.NoError(t, err)

	// An item written without the vote attributes still orders as zero.
	legacy, err := toItem(ports.TableFacts, ports.Row{"id": "3", "text": "Legacy", "category": "science"})
	require.NoError(t, err)
	fake.items[key(legacy)] = legacy

	asc, err := store.Query(ctx, ports.TableFacts, ports.Query{
		Order: &ports.Order{Column: "votesInteresting", Ascending: true},
	})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "Voted", asc[2]["text"])

	desc, err := store.Query(ctx, ports.TableFacts, ports.Query{
		Order: &ports.Order{Column: "votesInteresting", Ascending: false},
	})
	require.NoError(t, err)
	assert.Equal(t, "Voted", desc[0]["text"])
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Insert(ctx, ports.TableFacts, []ports.Row{
		{"id": "1", "title": "Octopus", "votesInteresting": 5},
		{"id": "2", "title": "Honey", "votesInteresting": 1},
	})
	require.NoError(t, err)

	rows, err := store.Update(ctx, ports.TableFacts, ports.Row{"votesInteresting": 6}, ports.Eq(ports.ColumnID, "1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(6), rows[0]["votesInteresting"])
	assert.Equal(t, "Octopus", rows[0]["title"])

	rows, err = store.Query(ctx, ports.TableFacts, ports.Query{Filter: ports.Eq(ports.ColumnID, "2")})
	require.NoError(t, err)
	assert.Equal(t, float64(1), rows[0]["votesInteresting"])

	rows, err = store.Update(ctx, ports.TableFacts, ports.Row{"title": "x"}, ports.Eq(ports.ColumnID, "99"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = store.Update(ctx, ports.TableFacts, ports.Row{}, ports.Eq(ports.ColumnID, "1"))
	assert.Error(t, err)
	_, err = store.Update(ctx, ports.TableFacts, ports.Row{"id": "5"}, ports.Eq(ports.ColumnID, "1"))
	assert.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)

	var comments []ports.Row
	for i := 0; i < 30; i++ {
		comments = append(comments, ports.Row{"facts_id": "3", "content": "c"})
	}
	comments = append(comments, ports.Row{"facts_id": "4", "content": "other"})
	_, err := store.Insert(ctx, ports.TableComments, comments)
	require.NoError(t, err)

	fake.unprocessed = 2
	require.NoError(t, store.Delete(ctx, ports.TableComments, ports.Eq(ports.ColumnFactID, "3")))
	assert.Equal(t, 1, fake.count(ports.TableComments))
	assert.Equal(t, 3, fake.batchCalls, "two batches plus one retry of unprocessed items")
}

func TestStore_DeleteGivesUpOnUnprocessed(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)

	_, err := store.Insert(ctx, ports.TableComments, []ports.Row{{"facts_id": "3", "content": "c"}})
	require.NoError(t, err)

	fake.unprocessed = maxRetries
	err = store.Delete(ctx, ports.TableComments, ports.Eq(ports.ColumnFactID, "3"))
	assert.ErrorContains(t, err, "unprocessed")
}

func TestStore_QueryErrorCarriesCode(t *testing.T) {
	store, fake := newTestStore(t)
	fake.queryErr = &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"}

	_, err := store.Query(context.Background(), ports.TableFacts, ports.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProvisionedThroughputExceededException")

	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestStore_EnsureTable(t *testing.T) {
	store, fake := newTestStore(t)
	require.NoError(t, store.EnsureTable(context.Background()))
	assert.True(t, fake.created)
	require.NoError(t, store.EnsureTable(context.Background()), "existing table is accepted")
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, compare(float64(2), float64(10)))
	assert.Equal(t, 1, compare("b", "a"))
	assert.Equal(t, 0, compare("2024-01-01", "2024-01-01"))
	assert.Equal(t, -1, compare(nil, float64(5)))
	assert.Equal(t, 1, compare(float64(5), nil))
	assert.Equal(t, 0, compare(nil, float64(0)))
}
