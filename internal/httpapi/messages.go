// Package httpapi provides shared request/response plumbing for the API
// Gateway handlers.
package httpapi

// Caller-facing error messages. Handlers respond with these and nothing else;
// diagnostic detail stays in the server-side logs.
const (
	MsgMaximumTimeWindowExceeded = "Maximum time window exceeded"
	MsgEmptyRequestBody          = "Empty request body"
	MsgIDsOfExpensesDontMatch    = "When updating, the `id` properties of both the updated expense and its previous state must be the same"
	MsgInvalidBatchSize          = "Received an invalid batch_size. Must be >0 integer."
	MsgBatchSizeExceeded         = "Serving this request would exceed the maximum size of the response, %d. "
	MsgInvalidQueryParams        = "Invalid URL query parameters"
	MsgNoExpenseWithThisID       = "Can't find an expense with this id in this account"
	MsgIDPropertyForbidden       = "The id property MUST be null"
	MsgIDPropertyMandatory       = "The `id` property must be non-null"
	MsgInvalidExpense            = "The expense doesn't match the expected format"
	MsgInvalidOrderParam         = "Invalid value for ordering direction. Allowed: [asc, desc]"
	MsgPreviousStateMissing      = "When updating an expense, both the updated expense and its previous state are required"
	MsgInvalidSyncEntry          = "Sync entries must carry a non-null id and valid UTC timestamps"
	MsgDuplicateTimestamp        = "An expense with this timestamp_utc already exists"
	MsgThroughputExceeded        = "Too many requests. Back off and retry"
	MsgInvalidToken              = "Invalid or missing identity token"
	MsgInternalError             = "Internal server error"
)
