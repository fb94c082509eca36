package store

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Error conditions surfaced by store operations. Anything else coming out of
// the storage client is propagated unwrapped.
var (
	// ErrExpenseNotFound means a conditional update or delete found no item
	// at the key, or an item owned by a different id.
	ErrExpenseNotFound = errors.New("no expense with this id in this account")

	// ErrDuplicateTimestamp means a conditional create or move found the
	// target timestamp_utc slot already occupied in this partition.
	ErrDuplicateTimestamp = errors.New("an expense with this timestamp_utc already exists")

	// ErrIDMismatch means an update was requested where the updated expense
	// and its previous state carry different ids. Nothing is written.
	ErrIDMismatch = errors.New("the id of the updated expense and its previous state differ")

	// ErrIDForbidden means a create was requested with a client-supplied id.
	ErrIDForbidden = errors.New("the id property must be null when persisting")

	// ErrUnqueryableProperty means no index ranges on the requested property.
	ErrUnqueryableProperty = errors.New("no index is configured to range on this property")

	// ErrThroughputExceeded means the engine rejected the operation due to
	// capacity. Callers may back off and retry.
	ErrThroughputExceeded = errors.New("provisioned throughput exceeded")

	// ErrBadRouting means the property-to-index routing table is invalid.
	// This is a deployment fault, not a per-request condition.
	ErrBadRouting = errors.New("index routing is misconfigured")
)

// conditionFailed reports whether err is the engine's structured signal that a
// ConditionExpression did not hold.
func conditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// throughputExceeded reports whether err is the engine's structured capacity
// rejection.
func throughputExceeded(err error) bool {
	var pte *types.ProvisionedThroughputExceededException
	return errors.As(err, &pte)
}
