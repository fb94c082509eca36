package expense

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Validation failure message prefixes. Callers can rely on these four
// categories being distinguishable.
const (
	MsgMissingProperty  = "missing required property: "
	MsgWrongType        = "property has the wrong type: "
	MsgPatternMismatch  = "the value %v for %s doesn't match the expected regex"
	MsgInvalidTimestamp = "the value %v for property %s is not a valid timestamp. It MUST be in UTC and NOT naive."
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	// A timestamp is only accepted with an explicit UTC designator.
	utcZonePattern = regexp.MustCompile(`(Z|\+00:00)$`)
)

// Validator checks candidate expense payloads against the record schema.
// It is stateless and safe for concurrent use.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

type fieldRule struct {
	name     string
	nullable bool
	check    func(any) (ok bool, msg string)
}

// rules are evaluated in order; validation stops at the first failure.
var rules = []fieldRule{
	{name: "id", nullable: true, check: checkString("id")},
	{name: "name", check: checkString("name")},
	{name: "amount", check: checkNumber("amount")},
	{name: "tags", check: checkStringList("tags")},
	{name: "currency", check: checkCurrency},
	{name: "timestamp_utc", check: checkTimestamp("timestamp_utc")},
	{name: "timestamp_utc_created", check: checkTimestamp("timestamp_utc_created")},
	{name: "timestamp_utc_updated", check: checkTimestamp("timestamp_utc_updated")},
}

// Validate checks a decoded JSON object against the expense schema. It returns
// true and an empty message when the candidate is valid, otherwise false and a
// message carrying one of the four prefix categories above.
func (v *Validator) Validate(candidate map[string]any) (bool, string) {
	for _, rule := range rules {
		value, present := candidate[rule.name]
		if !present {
			return false, MsgMissingProperty + rule.name
		}
		if value == nil {
			if rule.nullable {
				continue
			}
			return false, MsgWrongType + rule.name
		}
		if ok, msg := rule.check(value); !ok {
			return false, msg
		}
	}
	return true, ""
}

// ValidateField checks a single value against the rule for one attribute, for
// callers that parse attributes in isolation (e.g. URL query parameters).
// Unknown attribute names fail.
func (v *Validator) ValidateField(value any, name string) bool {
	for _, rule := range rules {
		if rule.name != name {
			continue
		}
		if value == nil {
			return rule.nullable
		}
		ok, _ := rule.check(value)
		return ok
	}
	return false
}

func checkString(name string) func(any) (bool, string) {
	return func(value any) (bool, string) {
		if _, ok := value.(string); !ok {
			return false, MsgWrongType + name
		}
		return true, ""
	}
}

func checkNumber(name string) func(any) (bool, string) {
	return func(value any) (bool, string) {
		switch n := value.(type) {
		case json.Number:
			if _, err := n.Float64(); err != nil {
				return false, MsgWrongType + name
			}
		case float64, int, int64:
		default:
			return false, MsgWrongType + name
		}
		return true, ""
	}
}

func checkStringList(name string) func(any) (bool, string) {
	return func(value any) (bool, string) {
		switch list := value.(type) {
		case []string:
		case []any:
			for _, item := range list {
				if _, ok := item.(string); !ok {
					return false, MsgWrongType + name
				}
			}
		default:
			return false, MsgWrongType + name
		}
		return true, ""
	}
}

func checkCurrency(value any) (bool, string) {
	s, ok := value.(string)
	if !ok {
		return false, MsgWrongType + "currency"
	}
	if !currencyPattern.MatchString(s) {
		return false, fmt.Sprintf(MsgPatternMismatch, s, "currency")
	}
	return true, ""
}

func checkTimestamp(name string) func(any) (bool, string) {
	return func(value any) (bool, string) {
		s, ok := value.(string)
		if !ok {
			return false, MsgWrongType + name
		}
		if !IsValidUTCTimestamp(s) {
			return false, fmt.Sprintf(MsgInvalidTimestamp, s, name)
		}
		return true, ""
	}
}

// IsValidUTCTimestamp reports whether s is an ISO-8601 instant with an
// explicit UTC designator. Naive timestamps and non-zero offsets are rejected.
func IsValidUTCTimestamp(s string) bool {
	if !utcZonePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
