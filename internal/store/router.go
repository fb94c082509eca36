package store

import (
	"fmt"

	"github.com/para-app/expenses-service/internal/dynamo"
)

// indexForProperty maps each queryable property to the local secondary index
// whose sort key it is. The empty string marks the base table's own sort key,
// which is queried directly. Exactly one property must map to the base table.
var indexForProperty = map[string]string{
	dynamo.AttrTimestampUTC:        "",
	dynamo.AttrID:                  dynamo.IndexIDRange,
	dynamo.AttrTimestampUTCCreated: dynamo.IndexCreatedRange,
}

// checkRouting verifies the exactly-one-base-table invariant. It runs once at
// store construction; a failure means the deployment is broken.
func checkRouting() error {
	base := 0
	for _, index := range indexForProperty {
		if index == "" {
			base++
		}
	}
	if base != 1 {
		return fmt.Errorf("%w: %d properties route to the base table, want exactly 1", ErrBadRouting, base)
	}
	return nil
}

// IsQueryable reports whether property can be ranged on.
func IsQueryable(property string) bool {
	_, ok := indexForProperty[property]
	return ok
}

// indexFor returns the index that ranges on property, or an empty name with
// onBase set when the base table already does.
func indexFor(property string) (index string, onBase bool, err error) {
	index, ok := indexForProperty[property]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnqueryableProperty, property)
	}
	return index, index == "", nil
}
