// Package dynamo provides shared DynamoDB constants for the expenses table.
package dynamo

const (
	// Base table key attributes.
	AttrUserUID      = "user_uid"
	AttrTimestampUTC = "timestamp_utc"

	// Non-key attributes.
	AttrID                  = "id"
	AttrName                = "name"
	AttrAmount              = "amount"
	AttrCurrency            = "currency"
	AttrTags                = "tags"
	AttrTimestampUTCCreated = "timestamp_utc_created"
	AttrTimestampUTCUpdated = "timestamp_utc_updated"

	// Local secondary indexes. Each re-sorts the partition on one attribute
	// with a full projection of the base item.
	IndexIDRange      = "LSI_ID_RANGE"
	IndexCreatedRange = "LSI_TIMESTAMP_UTC_CREATED_RANGE"
)
