package stock

import (
	"time"

	"github.com/google/uuid"
)

// Direction of a stock movement.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Movement is one append-only audit row. Exactly one movement is written per
// item per batch; movements are never mutated afterwards.
type Movement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Direction   Direction `json:"direction"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason"`
	Responsible string    `json:"responsible"`
	At          time.Time `json:"at"`
}

// NewMovementID generates a movement id.
func NewMovementID() string {
	return "mov-" + uuid.NewString()
}

// Batch is a validated, normalized adjustment request: lines are merged per
// key and sorted, so repositories can lock rows in a deterministic order.
type Batch struct {
	Direction   Direction
	Lines       []Line
	Reason      string
	Responsible string
	At          time.Time
	// AutoCreate lets replenish batches create missing items with the
	// default minimum threshold.
	AutoCreate bool
}

// BatchOutcome reports what a successfully applied batch did.
type BatchOutcome struct {
	Movements []Movement `json:"movements"`
	// CreatedDefault lists items auto-provisioned by this batch so callers
	// can audit them separately from pre-existing inventory.
	CreatedDefault []ItemKey `json:"created_default,omitempty"`
}
