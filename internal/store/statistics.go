package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/para-app/expenses-service/internal/dynamo"
)

// Statistics sums the expenses of one user per currency over [from, to).
// The engine's range query is inclusive on both bounds, so records landing
// exactly on to are discarded to get the exclusive upper bound. Sums are
// rounded to 2 decimal places. An empty window yields an empty map.
func (s *Store) Statistics(ctx context.Context, userUID, from, to string) (map[string]decimal.Decimal, error) {
	items, err := s.collectPages(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("#uid = :uid AND #ts BETWEEN :from AND :to"),
		ExpressionAttributeNames: map[string]string{
			"#uid": dynamo.AttrUserUID,
			"#ts":  dynamo.AttrTimestampUTC,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":  &types.AttributeValueMemberS{Value: userUID},
			":from": &types.AttributeValueMemberS{Value: from},
			":to":   &types.AttributeValueMemberS{Value: to},
		},
	}, 0)
	if err != nil {
		return nil, err
	}

	sums := map[string]decimal.Decimal{}
	for _, item := range items {
		exp := fromItem(item)
		if exp.TimestampUTC == to {
			continue
		}
		amount, err := decimal.NewFromString(exp.Amount.String())
		if err != nil {
			continue
		}
		sums[exp.Currency] = sums[exp.Currency].Add(amount)
	}

	for currency, sum := range sums {
		sums[currency] = sum.Round(2)
	}
	return sums, nil
}
