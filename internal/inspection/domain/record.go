package inspection

import (
	"time"

	"github.com/google/uuid"
)

const (
	ResultApproved           = "approved"
	ResultApprovedConditions = "approved_with_conditions"
	ResultRejected           = "rejected"
)

// ConsumptionLine names a stock component consumed during an inspection.
type ConsumptionLine struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"quantity"`
}

// InspectionRecord is the immutable outcome of one inspection. Records are
// append-only; the latest record per unit is the one with the greatest date.
// At most one of UnitID/CylinderID is set.
type InspectionRecord struct {
	ID             string            `json:"id"`
	UnitID         string            `json:"unit_id,omitempty"`
	CylinderID     string            `json:"cylinder_id,omitempty"`
	Date           time.Time         `json:"date"`
	Result         string            `json:"result"`
	Technician     string            `json:"technician"`
	TestsPerformed []string          `json:"tests_performed,omitempty"`
	Consumed       []ConsumptionLine `json:"consumed,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewRecordID generates a record id.
func NewRecordID() string {
	return "insp-" + uuid.NewString()
}

// ValidResult reports whether an inspection result value is supported.
func ValidResult(result string) bool {
	switch result {
	case ResultApproved, ResultApprovedConditions, ResultRejected:
		return true
	default:
		return false
	}
}
