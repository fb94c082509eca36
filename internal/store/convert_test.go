package store

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/para-app/expenses-service/internal/dynamo"
	"github.com/para-app/expenses-service/internal/expense"
)

func TestConvert_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		exp  *expense.Expense
	}{
		{"full record", testExpense("exp-1", testNow)},
		{
			"empty name and tags",
			&expense.Expense{
				ID:                  "exp-2",
				Name:                "",
				Amount:              json.Number("100"),
				Currency:            "USD",
				Tags:                []string{},
				TimestampUTC:        testNow,
				TimestampUTCCreated: testNow,
				TimestampUTCUpdated: testNow,
			},
		},
		{
			"fractional amount",
			&expense.Expense{
				ID:                  "exp-3",
				Name:                "coffee",
				Amount:              json.Number("3.75"),
				Currency:            "GBP",
				Tags:                []string{"drink", "morning"},
				TimestampUTC:        testNow,
				TimestampUTCCreated: testNow,
				TimestampUTCUpdated: testLater,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := toItem("user-123", tt.exp)
			if err != nil {
				t.Fatalf("toItem() error = %v", err)
			}
			got := fromItem(item)
			if !reflect.DeepEqual(got, tt.exp) {
				t.Errorf("round trip = %+v, want %+v", got, tt.exp)
			}
		})
	}
}

func TestConvert_OmitsEmptySequences(t *testing.T) {
	exp := testExpense("exp-1", testNow)
	exp.Name = ""
	exp.Tags = nil

	item, err := toItem("user-123", exp)
	if err != nil {
		t.Fatalf("toItem() error = %v", err)
	}
	if _, present := item[dynamo.AttrTags]; present {
		t.Error("empty tags must be omitted from the stored item")
	}
	if _, present := item[dynamo.AttrName]; present {
		t.Error("empty name must be omitted from the stored item")
	}

	got := fromItem(item)
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want reconstituted empty slice", got.Tags)
	}
	if got.Name != "" {
		t.Errorf("Name = %q, want empty", got.Name)
	}
}

func TestConvert_AmountExactDecimalOnWire(t *testing.T) {
	exp := testExpense("exp-1", testNow)
	exp.Amount = json.Number("19.90")

	item, err := toItem("user-123", exp)
	if err != nil {
		t.Fatalf("toItem() error = %v", err)
	}
	n, ok := item[dynamo.AttrAmount].(*types.AttributeValueMemberN)
	if !ok {
		t.Fatalf("amount stored as %T, want N", item[dynamo.AttrAmount])
	}
	if n.Value != "19.9" {
		t.Errorf("stored amount = %q, want normalized exact decimal 19.9", n.Value)
	}
}

func TestConvert_NarrowestNumberOnRead(t *testing.T) {
	tests := []struct {
		stored string
		want   string
	}{
		{"100", "100"},
		{"100.00", "100"},
		{"3.75", "3.75"},
		{"-7.0", "-7"},
		{"0.1", "0.1"},
	}

	for _, tt := range tests {
		item := map[string]types.AttributeValue{
			dynamo.AttrAmount: &types.AttributeValueMemberN{Value: tt.stored},
		}
		if got := fromItem(item).Amount.String(); got != tt.want {
			t.Errorf("narrowest(%q) = %q, want %q", tt.stored, got, tt.want)
		}
	}
}

func TestConvert_RejectsBadAmount(t *testing.T) {
	exp := testExpense("exp-1", testNow)
	exp.Amount = json.Number("not a number")

	if _, err := toItem("user-123", exp); err == nil {
		t.Error("toItem() with junk amount succeeded, want error")
	}
}
