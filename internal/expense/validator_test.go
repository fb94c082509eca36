package expense

import (
	"encoding/json"
	"strings"
	"testing"
)

func validCandidate() map[string]any {
	return map[string]any{
		"id":                    "c4ca4238-a0b9-3382-8dcc-509a6f75849b",
		"name":                  "groceries",
		"amount":                json.Number("12.50"),
		"currency":              "EUR",
		"tags":                  []any{"food", "weekly"},
		"timestamp_utc":         "2024-01-15T10:30:00.000000Z",
		"timestamp_utc_created": "2024-01-15T10:30:00.000000Z",
		"timestamp_utc_updated": "2024-01-15T10:30:00.000000Z",
	}
}

func TestValidator_ValidExpense(t *testing.T) {
	v := NewValidator()

	ok, msg := v.Validate(validCandidate())
	if !ok {
		t.Fatalf("Validate() = false, msg = %q, want valid", msg)
	}
	if msg != "" {
		t.Errorf("msg = %q, want empty", msg)
	}
}

func TestValidator_NullID(t *testing.T) {
	v := NewValidator()
	candidate := validCandidate()
	candidate["id"] = nil

	ok, msg := v.Validate(candidate)
	if !ok {
		t.Fatalf("Validate() = false, msg = %q, want valid for null id", msg)
	}
}

func TestValidator_MissingProperty(t *testing.T) {
	v := NewValidator()

	for _, name := range []string{"id", "name", "amount", "tags", "currency",
		"timestamp_utc", "timestamp_utc_created", "timestamp_utc_updated"} {
		candidate := validCandidate()
		delete(candidate, name)

		ok, msg := v.Validate(candidate)
		if ok {
			t.Errorf("Validate() without %q = true, want invalid", name)
		}
		if !strings.HasPrefix(msg, MsgMissingProperty) {
			t.Errorf("msg = %q, want prefix %q", msg, MsgMissingProperty)
		}
	}
}

func TestValidator_WrongType(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		field string
		value any
	}{
		{"numeric name", "name", 42.0},
		{"string amount", "amount", "twelve"},
		{"unparseable amount", "amount", json.Number("12.3.4")},
		{"scalar tags", "tags", "food"},
		{"mixed tags", "tags", []any{"food", 1.0}},
		{"numeric currency", "currency", 978.0},
		{"numeric timestamp", "timestamp_utc", 1705314600.0},
		{"null name", "name", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validCandidate()
			candidate[tt.field] = tt.value

			ok, msg := v.Validate(candidate)
			if ok {
				t.Fatalf("Validate() = true, want invalid")
			}
			if !strings.HasPrefix(msg, MsgWrongType) {
				t.Errorf("msg = %q, want prefix %q", msg, MsgWrongType)
			}
		})
	}
}

func TestValidator_CurrencyPattern(t *testing.T) {
	v := NewValidator()

	for _, bad := range []string{"eur", "EURO", "E", "", "12E"} {
		candidate := validCandidate()
		candidate["currency"] = bad

		ok, msg := v.Validate(candidate)
		if ok {
			t.Errorf("Validate() with currency %q = true, want invalid", bad)
		}
		if !strings.Contains(msg, "doesn't match the expected regex") {
			t.Errorf("msg = %q, want pattern-mismatch category", msg)
		}
	}
}

func TestValidator_InvalidTimestamp(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		value string
	}{
		{"naive", "2024-01-15T10:30:00"},
		{"non-utc offset", "2024-01-15T10:30:00+02:00"},
		{"date only", "2024-01-15"},
		{"garbage", "not a timestamp"},
		{"utc suffix but malformed", "2024-13-45T99:99:99Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := validCandidate()
			candidate["timestamp_utc"] = tt.value

			ok, msg := v.Validate(candidate)
			if ok {
				t.Fatalf("Validate() with %q = true, want invalid", tt.value)
			}
			if !strings.Contains(msg, "is not a valid timestamp") {
				t.Errorf("msg = %q, want invalid-timestamp category", msg)
			}
		})
	}
}

func TestValidator_ExplicitUTCOffsetAccepted(t *testing.T) {
	v := NewValidator()
	candidate := validCandidate()
	candidate["timestamp_utc"] = "2024-01-15T10:30:00.000000+00:00"

	if ok, msg := v.Validate(candidate); !ok {
		t.Fatalf("Validate() = false, msg = %q, want +00:00 accepted", msg)
	}
}

func TestValidator_ValidateField(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		field string
		value any
		want  bool
	}{
		{"valid timestamp", "timestamp_utc", "2024-01-15T10:30:00Z", true},
		{"naive timestamp", "timestamp_utc", "2024-01-15T10:30:00", false},
		{"valid created", "timestamp_utc_created", "2024-01-15T10:30:00Z", true},
		{"valid id", "id", "some-opaque-id", true},
		{"null id", "id", nil, true},
		{"valid currency", "currency", "USD", true},
		{"bad currency", "currency", "usd", false},
		{"unknown field", "user_uid", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.ValidateField(tt.value, tt.field); got != tt.want {
				t.Errorf("ValidateField(%v, %q) = %v, want %v", tt.value, tt.field, got, tt.want)
			}
		})
	}
}
