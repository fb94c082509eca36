package store

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/para-app/expenses-service/internal/dynamo"
	"github.com/para-app/expenses-service/internal/expense"
)

// toItem converts an expense to its stored attribute set. The amount is
// written as an exact decimal; an empty name and empty tags are omitted
// entirely (the engine rejects empty sequences).
func toItem(userUID string, exp *expense.Expense) (map[string]types.AttributeValue, error) {
	amount, err := decimal.NewFromString(exp.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("amount %q is not a decimal: %w", exp.Amount, err)
	}

	item := map[string]types.AttributeValue{
		dynamo.AttrUserUID:             &types.AttributeValueMemberS{Value: userUID},
		dynamo.AttrTimestampUTC:        &types.AttributeValueMemberS{Value: exp.TimestampUTC},
		dynamo.AttrID:                  &types.AttributeValueMemberS{Value: exp.ID},
		dynamo.AttrAmount:              &types.AttributeValueMemberN{Value: amount.String()},
		dynamo.AttrCurrency:            &types.AttributeValueMemberS{Value: exp.Currency},
		dynamo.AttrTimestampUTCCreated: &types.AttributeValueMemberS{Value: exp.TimestampUTCCreated},
		dynamo.AttrTimestampUTCUpdated: &types.AttributeValueMemberS{Value: exp.TimestampUTCUpdated},
	}

	if exp.Name != "" {
		item[dynamo.AttrName] = &types.AttributeValueMemberS{Value: exp.Name}
	}

	if len(exp.Tags) > 0 {
		tags := make([]types.AttributeValue, len(exp.Tags))
		for i, tag := range exp.Tags {
			tags[i] = &types.AttributeValueMemberS{Value: tag}
		}
		item[dynamo.AttrTags] = &types.AttributeValueMemberL{Value: tags}
	}

	return item, nil
}

// fromItem converts a stored attribute set back to an expense. The partition
// attribute is stripped; omitted name/tags are reconstituted as empty values;
// the amount comes back as the narrowest faithful literal.
func fromItem(item map[string]types.AttributeValue) *expense.Expense {
	exp := &expense.Expense{Tags: []string{}}

	if v, ok := item[dynamo.AttrID].(*types.AttributeValueMemberS); ok {
		exp.ID = v.Value
	}
	if v, ok := item[dynamo.AttrName].(*types.AttributeValueMemberS); ok {
		exp.Name = v.Value
	}
	if v, ok := item[dynamo.AttrAmount].(*types.AttributeValueMemberN); ok {
		exp.Amount = narrowestNumber(v.Value)
	}
	if v, ok := item[dynamo.AttrCurrency].(*types.AttributeValueMemberS); ok {
		exp.Currency = v.Value
	}
	if v, ok := item[dynamo.AttrTags].(*types.AttributeValueMemberL); ok {
		for _, tag := range v.Value {
			if s, ok := tag.(*types.AttributeValueMemberS); ok {
				exp.Tags = append(exp.Tags, s.Value)
			}
		}
	}
	if v, ok := item[dynamo.AttrTimestampUTC].(*types.AttributeValueMemberS); ok {
		exp.TimestampUTC = v.Value
	}
	if v, ok := item[dynamo.AttrTimestampUTCCreated].(*types.AttributeValueMemberS); ok {
		exp.TimestampUTCCreated = v.Value
	}
	if v, ok := item[dynamo.AttrTimestampUTCUpdated].(*types.AttributeValueMemberS); ok {
		exp.TimestampUTCUpdated = v.Value
	}

	return exp
}

// narrowestNumber renders a stored decimal as an integer literal when it has
// no fractional part, otherwise as its exact decimal form.
func narrowestNumber(stored string) json.Number {
	d, err := decimal.NewFromString(stored)
	if err != nil {
		return json.Number(stored)
	}
	if d.IsInteger() {
		return json.Number(d.BigInt().String())
	}
	return json.Number(d.String())
}
