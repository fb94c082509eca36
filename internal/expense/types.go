// Package expense provides the expense record model and its validator.
package expense

import "encoding/json"

// Expense is a single expense record as exchanged with clients. The amount is
// kept as the raw JSON literal so exact decimals survive the trip to storage.
// The partitioning attribute (user_uid) is deliberately not part of the model.
type Expense struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Amount              json.Number `json:"amount"`
	Currency            string      `json:"currency"`
	Tags                []string    `json:"tags"`
	TimestampUTC        string      `json:"timestamp_utc"`
	TimestampUTCCreated string      `json:"timestamp_utc_created"`
	TimestampUTCUpdated string      `json:"timestamp_utc_updated"`
}
