package store

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/para-app/expenses-service/internal/dynamo"
	"github.com/para-app/expenses-service/internal/expense"
)

// SyncEntry is the client's last-known state for one expense.
type SyncEntry struct {
	TimestampUTCUpdated string `json:"timestamp_utc_updated"`
	TimestampUTC        string `json:"timestamp_utc"`
}

// SyncResult partitions the reconciliation outcome into three disjoint sets.
type SyncResult struct {
	ToAdd    []*expense.Expense `json:"to_add"`
	ToRemove []string           `json:"to_remove"`
	ToUpdate []*expense.Expense `json:"to_update"`
}

// Sync reconciles the client's view against the newest server-side window of
// this partition. Ids the client holds but the window doesn't are to be
// removed; window records the client lacks are to be added; records on both
// sides are to be updated when the server copy is strictly newer.
func (s *Store) Sync(ctx context.Context, userUID string, clientState map[string]SyncEntry) (*SyncResult, error) {
	// The id-ranged index is a deployment requirement for sync: results are
	// reconciled by id, and that is also how clients fetch follow-ups.
	if index := indexForProperty[dynamo.AttrID]; index == "" {
		return nil, ErrBadRouting
	}

	items, err := s.collectPages(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("#uid = :uid"),
		ExpressionAttributeNames: map[string]string{
			"#uid": dynamo.AttrUserUID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userUID},
		},
		ScanIndexForward: aws.Bool(false),
	}, s.maxSyncWindow)
	if err != nil {
		return nil, err
	}

	window := make(map[string]*expense.Expense, len(items))
	result := &SyncResult{
		ToAdd:    []*expense.Expense{},
		ToRemove: []string{},
		ToUpdate: []*expense.Expense{},
	}

	for _, item := range items {
		exp := fromItem(item)
		window[exp.ID] = exp
		if _, known := clientState[exp.ID]; !known {
			result.ToAdd = append(result.ToAdd, exp)
		}
	}

	for id, entry := range clientState {
		exp, present := window[id]
		if !present {
			result.ToRemove = append(result.ToRemove, id)
			continue
		}
		if newerThan(exp.TimestampUTCUpdated, entry.TimestampUTCUpdated) {
			result.ToUpdate = append(result.ToUpdate, exp)
		}
	}

	// Map iteration order is random; keep the response stable.
	sort.Strings(result.ToRemove)
	sort.Slice(result.ToUpdate, func(i, j int) bool {
		return result.ToUpdate[i].TimestampUTC > result.ToUpdate[j].TimestampUTC
	})

	return result, nil
}

// newerThan reports whether the server stamp is strictly after the client
// stamp. An unparseable client stamp counts as stale.
func newerThan(server, client string) bool {
	serverAt, err := time.Parse(time.RFC3339, server)
	if err != nil {
		return false
	}
	clientAt, err := time.Parse(time.RFC3339, client)
	if err != nil {
		return true
	}
	return serverAt.After(clientAt)
}
