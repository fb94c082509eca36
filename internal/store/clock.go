package store

import (
	"time"

	"github.com/google/uuid"
)

// timestampLayout is the canonical wire form of an instant: microsecond
// precision, Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Clock produces the canonical "now" string used for server-side stamps.
type Clock interface {
	NowUTC() string
}

// IDSource produces opaque ids for newly persisted expenses.
type IDSource interface {
	NewID() string
}

// systemClock is the production Clock.
type systemClock struct{}

func (systemClock) NowUTC() string {
	return time.Now().UTC().Format(timestampLayout)
}

// uuidSource is the production IDSource.
type uuidSource struct{}

func (uuidSource) NewID() string {
	return uuid.NewString()
}
