// Package store implements the partition-scoped expense record store on top
// of a single DynamoDB table and its two local secondary indexes.
package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/para-app/expenses-service/internal/dynamo"
	"github.com/para-app/expenses-service/internal/expense"
)

// Defaults for the configurable window sizes.
const (
	DefaultMaxPageSize   = 25
	DefaultMaxSyncWindow = 100
)

// Direction is the ordering of a ranged query.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps a caller-supplied ordering string to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Ascending, Descending:
		return Direction(s), true
	default:
		return "", false
	}
}

// DynamoDBClient defines the interface for DynamoDB operations.
type DynamoDBClient interface {
	Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Settings carries the store's tunables. Zero values select defaults.
type Settings struct {
	MaxPageSize   int      // hard cap on List page sizes
	MaxSyncWindow int      // newest records considered during Sync
	Clock         Clock    // nil selects the system UTC clock
	IDs           IDSource // nil selects random UUIDs
}

// Store is the expense record store. It holds no mutable state beyond the
// connection handle and is safe for concurrent use.
type Store struct {
	client        DynamoDBClient
	tableName     string
	clock         Clock
	ids           IDSource
	maxPageSize   int
	maxSyncWindow int
}

// New creates a Store and verifies the index routing invariant.
func New(client DynamoDBClient, tableName string, settings Settings) (*Store, error) {
	if err := checkRouting(); err != nil {
		return nil, err
	}
	if settings.MaxPageSize <= 0 {
		settings.MaxPageSize = DefaultMaxPageSize
	}
	if settings.MaxSyncWindow <= 0 {
		settings.MaxSyncWindow = DefaultMaxSyncWindow
	}
	if settings.Clock == nil {
		settings.Clock = systemClock{}
	}
	if settings.IDs == nil {
		settings.IDs = uuidSource{}
	}
	return &Store{
		client:        client,
		tableName:     tableName,
		clock:         settings.Clock,
		ids:           settings.IDs,
		maxPageSize:   settings.MaxPageSize,
		maxSyncWindow: settings.MaxSyncWindow,
	}, nil
}

// Ping verifies connectivity to the table under the caller's deadline.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to reach table %s: %w", s.tableName, err)
	}
	return nil
}

// List returns up to limit expenses of one user ordered by property. With a
// non-empty value it returns the page on the direction side of that boundary,
// strictly beyond it unless inclusive is set. The limit is silently capped.
func (s *Store) List(ctx context.Context, userUID, property, value string, direction Direction, limit int, inclusive bool) ([]*expense.Expense, error) {
	index, onBase, err := indexFor(property)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	keyCondition := "#uid = :uid"
	names := map[string]string{"#uid": dynamo.AttrUserUID}
	values := map[string]types.AttributeValue{
		":uid": &types.AttributeValueMemberS{Value: userUID},
	}

	if value != "" {
		keyCondition += fmt.Sprintf(" AND #prop %s :value", comparator(direction, inclusive))
		names["#prop"] = property
		values[":value"] = &types.AttributeValueMemberS{Value: value}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(direction == Ascending),
	}
	if !onBase {
		input.IndexName = aws.String(index)
	}

	items, err := s.collectPages(ctx, input, limit)
	if err != nil {
		return nil, err
	}

	expenses := make([]*expense.Expense, len(items))
	for i, item := range items {
		expenses[i] = fromItem(item)
	}
	return expenses, nil
}

// GetByID retrieves a single expense through the id-ranged index.
func (s *Store) GetByID(ctx context.Context, userUID, id string) (*expense.Expense, error) {
	output, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(dynamo.IndexIDRange),
		KeyConditionExpression: aws.String("#uid = :uid AND #id = :id"),
		ExpressionAttributeNames: map[string]string{
			"#uid": dynamo.AttrUserUID,
			"#id":  dynamo.AttrID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userUID},
			":id":  &types.AttributeValueMemberS{Value: id},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query expense by id: %w", err)
	}
	if len(output.Items) == 0 {
		return nil, ErrExpenseNotFound
	}
	return fromItem(output.Items[0]), nil
}

// Persist stores a new expense. The id must be unset; the store assigns it
// together with the created/updated stamps. The write is conditioned on the
// timestamp_utc slot being free in this partition.
func (s *Store) Persist(ctx context.Context, userUID string, exp *expense.Expense) (*expense.Expense, error) {
	if exp.ID != "" {
		return nil, ErrIDForbidden
	}

	now := s.clock.NowUTC()
	stamped := *exp
	stamped.ID = s.ids.NewID()
	stamped.TimestampUTCCreated = now
	stamped.TimestampUTCUpdated = now

	item, err := toItem(userUID, &stamped)
	if err != nil {
		return nil, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#uid)"),
		ExpressionAttributeNames: map[string]string{"#uid": dynamo.AttrUserUID},
	})
	if err != nil {
		if conditionFailed(err) {
			return nil, ErrDuplicateTimestamp
		}
		return nil, err
	}

	return fromItem(item), nil
}

// Update replaces an expense with its new state, stamping timestamp_utc_updated.
// When the sort key is unchanged this is a single conditional replace. When it
// changed, the record moves: the new key is written first under a must-not-exist
// condition, and only after that succeeds is the old key deleted.
func (s *Store) Update(ctx context.Context, userUID string, updated, previous *expense.Expense) (*expense.Expense, error) {
	if updated.ID == "" || updated.ID != previous.ID {
		return nil, ErrIDMismatch
	}

	stamped := *updated
	stamped.TimestampUTCUpdated = s.clock.NowUTC()

	item, err := toItem(userUID, &stamped)
	if err != nil {
		return nil, err
	}

	if updated.TimestampUTC == previous.TimestampUTC {
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_exists(#uid) AND #id = :id"),
			ExpressionAttributeNames: map[string]string{
				"#uid": dynamo.AttrUserUID,
				"#id":  dynamo.AttrID,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":id": &types.AttributeValueMemberS{Value: previous.ID},
			},
		})
		if err != nil {
			if conditionFailed(err) {
				return nil, ErrExpenseNotFound
			}
			return nil, err
		}
		return fromItem(item), nil
	}

	// Two-phase move. The old record must never be deleted unless the new one
	// was durably written first.
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#uid)"),
		ExpressionAttributeNames: map[string]string{"#uid": dynamo.AttrUserUID},
	})
	if err != nil {
		if conditionFailed(err) {
			return nil, ErrDuplicateTimestamp
		}
		return nil, err
	}

	if err := s.deleteAt(ctx, userUID, previous.TimestampUTC, previous.ID); err != nil {
		return nil, err
	}
	return fromItem(item), nil
}

// Remove deletes an expense, conditioned on the key existing and carrying the
// expected id.
func (s *Store) Remove(ctx context.Context, userUID string, exp *expense.Expense) error {
	return s.deleteAt(ctx, userUID, exp.TimestampUTC, exp.ID)
}

func (s *Store) deleteAt(ctx context.Context, userUID, timestampUTC, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrUserUID:      &types.AttributeValueMemberS{Value: userUID},
			dynamo.AttrTimestampUTC: &types.AttributeValueMemberS{Value: timestampUTC},
		},
		ConditionExpression: aws.String("attribute_exists(#uid) AND #id = :id"),
		ExpressionAttributeNames: map[string]string{
			"#uid": dynamo.AttrUserUID,
			"#id":  dynamo.AttrID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return ErrExpenseNotFound
		}
		return err
	}
	return nil
}

// comparator selects the key condition operator for cursor pagination:
// exclusive by default, inclusive on request.
func comparator(direction Direction, inclusive bool) string {
	switch {
	case direction == Ascending && inclusive:
		return ">="
	case direction == Ascending:
		return ">"
	case inclusive:
		return "<="
	default:
		return "<"
	}
}

// collectPages runs a query, following continuation keys until the result set
// is exhausted or limit items have been gathered. limit <= 0 means unbounded.
func (s *Store) collectPages(ctx context.Context, input *dynamodb.QueryInput, limit int) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		if limit > 0 {
			input.Limit = aws.Int32(int32(limit - len(items)))
		}
		output, err := s.client.Query(ctx, input)
		if err != nil {
			if throughputExceeded(err) {
				return nil, fmt.Errorf("%w: %v", ErrThroughputExceeded, err)
			}
			return nil, err
		}
		items = append(items, output.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if output.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}
