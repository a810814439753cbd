// Package dynamodb implements ports.RemoteStore on a single DynamoDB table.
// Every row is one item keyed by PK (the logical table name) and SK (the
// row id), so a logical table read is a single-partition query.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
)

// TimeLayout matches the timestamps PostgREST returns for timestamptz.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

const (
	attrPK = "PK"
	attrSK = "SK"

	// DynamoDB limits batch writes to 25 items
	batchSize  = 25
	maxRetries = 3
)

var tables = map[string]bool{ports.TableFacts: true, ports.TableComments: true}

// tableDefaults are the column defaults applied on insert, matching the
// other stores.
var tableDefaults = map[string]ports.Row{
	ports.TableFacts: {
		"title":            "",
		"image_url":        "",
		"secret_key":       "",
		"user_id":          "",
		"votesInteresting": 0,
		"votesMindblowing": 0,
		"votesFalse":       0,
	},
	ports.TableComments: {
		"user_id": "",
	},
}

// keyColumns are always stored as strings so equality filters on them work
// regardless of how the caller typed the id.
var keyColumns = map[string]bool{ports.ColumnID: true, ports.ColumnFactID: true}

// API is the part of the DynamoDB client the store uses.
type API interface {
	dynamodb.QueryAPIClient
	dynamodb.DescribeTableAPIClient
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// NewClient creates a DynamoDB client from the default AWS credential chain.
// A non-empty endpoint points the client at DynamoDB Local or LocalStack.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Store runs the table operations against one DynamoDB table.
type Store struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
	backoff   time.Duration
}

// NewStore creates a store on tableName.
func NewStore(client API, tableName string, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger.Named("dynamodb"),
		now:       time.Now,
		backoff:   100 * time.Millisecond,
	}
}

// EnsureTable creates the table when it does not exist yet and waits until
// it is active.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return wrap("create table", s.tableName, err)
		}
	} else {
		s.logger.Info("Created table", zap.String("table", s.tableName))
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}, 2*time.Minute); err != nil {
		return fmt.Errorf("table %s not ready: %w", s.tableName, err)
	}
	return nil
}

// Query implements ports.RemoteStore. DynamoDB cannot order a partition by
// an arbitrary attribute, so ordering and the limit are applied after all
// pages are read.
func (s *Store) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	items, err := s.find(ctx, table, q.Filter)
	if err != nil {
		return nil, err
	}

	rows := make([]ports.Row, 0, len(items))
	for _, item := range items {
		row, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if q.Order != nil {
		col, asc := q.Order.Column, q.Order.Ascending
		sort.SliceStable(rows, func(i, j int) bool {
			c := compare(rows[i][col], rows[j][col])
			if asc {
				return c < 0
			}
			return c > 0
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// Insert implements ports.RemoteStore.
func (s *Store) Insert(ctx context.Context, table string, in []ports.Row) ([]ports.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.Name(attrPK).AttributeNotExists()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out := make([]ports.Row, 0, len(in))
	for _, row := range in {
		values := ports.Row{}
		for k, v := range tableDefaults[table] {
			values[k] = v
		}
		for k, v := range row {
			values[k] = v
		}
		if _, ok := values[ports.ColumnID]; !ok {
			values[ports.ColumnID] = uuid.NewString()
		}
		if _, ok := values[ports.ColumnCreatedAt]; !ok {
			values[ports.ColumnCreatedAt] = s.now().UTC().Format(TimeLayout)
		}

		item, err := toItem(table, values)
		if err != nil {
			return nil, err
		}
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(s.tableName),
			Item:                      item,
			ConditionExpression:       cond.Condition(),
			ExpressionAttributeNames:  cond.Names(),
			ExpressionAttributeValues: cond.Values(),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return nil, fmt.Errorf("insert %s: id %v already exists", table, values[ports.ColumnID])
			}
			return nil, wrap("insert", table, err)
		}

		stored, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}

	s.logger.Debug("Rows inserted", zap.String("table", table), zap.Int("count", len(out)))
	return out, nil
}

// Update implements ports.RemoteStore. Items deleted between the lookup and
// the write are skipped.
func (s *Store) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("update %s: empty patch", table)
	}
	if _, ok := patch[ports.ColumnID]; ok {
		return nil, fmt.Errorf("update %s: id is immutable", table)
	}
	items, err := s.find(ctx, table, match)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(patch))
	for k := range patch {
		names = append(names, k)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(normalize(name, patch[name])))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.Name(attrPK).AttributeExists()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out := make([]ports.Row, 0, len(items))
	for _, item := range items {
		res, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.tableName),
			Key:                       keyOf(item),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ReturnValues:              types.ReturnValueAllNew,
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				continue
			}
			return nil, wrap("update", table, err)
		}
		row, err := fromItem(res.Attributes)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	s.logger.Debug("Rows updated", zap.String("table", table), zap.Int("count", len(out)))
	return out, nil
}

// Delete implements ports.RemoteStore.
func (s *Store) Delete(ctx context.Context, table string, match ports.Filter) error {
	items, err := s.find(ctx, table, match)
	if err != nil {
		return err
	}

	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		requests := make([]types.WriteRequest, 0, end-i)
		for _, item := range items[i:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: keyOf(item)},
			})
		}
		if err := s.batchWrite(ctx, table, requests); err != nil {
			return err
		}
	}

	s.logger.Debug("Rows deleted", zap.String("table", table), zap.Int("count", len(items)))
	return nil
}

// batchWrite sends requests, resending the items DynamoDB reports as
// unprocessed. A failed call is returned as is.
func (s *Store) batchWrite(ctx context.Context, table string, requests []types.WriteRequest) error {
	pending := requests
	for retry := 0; retry < maxRetries && len(pending) > 0; retry++ {
		if retry > 0 {
			s.logger.Debug("Found unprocessed items, retrying",
				zap.Int("unprocessedCount", len(pending)),
				zap.Int("retry", retry))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(retry*retry) * s.backoff):
			}
		}

		res, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.tableName: pending},
		})
		if err != nil {
			return wrap("delete", table, err)
		}
		pending = res.UnprocessedItems[s.tableName]
	}

	if len(pending) > 0 {
		return fmt.Errorf("delete %s: %d items unprocessed after %d attempts", table, len(pending), maxRetries)
	}
	return nil
}

// find reads every item of the logical table matching filter.
func (s *Store) find(ctx context.Context, table string, filter ports.Filter) ([]map[string]types.AttributeValue, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key(attrPK).Equal(expression.Value(table)))
	if cond, ok := filterCondition(filter); ok {
		builder = builder.WithFilter(cond)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrap("query", table, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func filterCondition(filter ports.Filter) (expression.ConditionBuilder, bool) {
	conds := make([]expression.ConditionBuilder, 0, len(filter))
	for _, c := range filter {
		conds = append(conds, expression.Name(c.Column).Equal(expression.Value(c.Value)))
	}
	switch len(conds) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return conds[0], true
	}
	return expression.And(conds[0], conds[1], conds[2:]...), true
}

func toItem(table string, row ports.Row) (map[string]types.AttributeValue, error) {
	values := make(map[string]interface{}, len(row))
	for k, v := range row {
		if k == attrPK || k == attrSK {
			return nil, fmt.Errorf("column %q is reserved", k)
		}
		values[k] = normalize(k, v)
	}
	item, err := attributevalue.MarshalMap(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row: %w", err)
	}
	item[attrPK] = &types.AttributeValueMemberS{Value: table}
	item[attrSK] = &types.AttributeValueMemberS{Value: fmt.Sprint(values[ports.ColumnID])}
	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (ports.Row, error) {
	var row map[string]interface{}
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	delete(row, attrPK)
	delete(row, attrSK)
	return ports.Row(row), nil
}

func keyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: item[attrPK],
		attrSK: item[attrSK],
	}
}

// normalize converts a row value into something attributevalue marshals the
// way the other stores persist it.
func normalize(column string, v interface{}) interface{} {
	if keyColumns[column] && v != nil {
		switch t := v.(type) {
		case float64:
			if t == float64(int64(t)) {
				return fmt.Sprint(int64(t))
			}
		}
		return fmt.Sprint(v)
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(TimeLayout)
	case fmt.Stringer:
		return t.String()
	}
	return v
}

// compare orders numbers numerically and everything else by its text. A
// missing value counts as zero against a number.
func compare(a, b interface{}) int {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if a == nil && bNum {
		aNum = true
	}
	if b == nil && aNum {
		bNum = true
	}
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func checkTable(table string) error {
	if !tables[table] {
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}

// wrap adds the DynamoDB error code when the SDK reports one.
func wrap(op, table string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s %s (%s): %w", op, table, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}
