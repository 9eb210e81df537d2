// Package history provides the calculation history log and the stores
// that persist it.
//
// The log is an owned repository object: callers load it from a Store on
// startup and every mutation is written back under a single fixed key.
package history

import (
	"time"

	"github.com/google/uuid"
)

// StorageKey is the fixed key the full history sequence is stored under.
const StorageKey = "calc_history"

// DefaultLimit is the maximum number of records retained.
const DefaultLimit = 50

// Record is an immutable log entry of one completed calculation.
type Record struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecord creates a record stamped with a fresh ID and the given time.
func NewRecord(expression, result string, at time.Time) Record {
	return Record{
		ID:         uuid.New().String(),
		Expression: expression,
		Result:     result,
		Timestamp:  at,
	}
}
