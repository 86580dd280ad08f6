package inspection

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive      = "active"
	StatusMaintenance = "maintenance"
	StatusRetired     = "retired"
)

// Unit is a life raft or equivalent safety asset tracked for compliance.
// Units are never deleted, only retired.
type Unit struct {
	ID              string    `json:"id"`
	Serial          string    `json:"serial"`
	Brand           string    `json:"brand"`
	Model           string    `json:"model"`
	VesselID        string    `json:"vessel_id,omitempty"`
	ManufactureDate time.Time `json:"manufacture_date"`
	Status          string    `json:"status"`
	LastInspection  time.Time `json:"last_inspection,omitempty"`
	NextDue         time.Time `json:"next_due,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewUnitID generates a unit id.
func NewUnitID() string {
	return "unit-" + uuid.NewString()
}

// Validate checks unit invariants.
func (u Unit) Validate() error {
	if strings.TrimSpace(u.Serial) == "" {
		return errors.New("inspection: unit serial required")
	}
	if u.ManufactureDate.IsZero() {
		return errors.New("inspection: unit manufacture date required")
	}
	if !ValidStatus(u.Status) {
		return errors.New("inspection: invalid unit status")
	}
	return u.checkSchedule()
}

// SetSchedule updates last-inspection and next-due together, enforcing that a
// set next-due date never precedes the last inspection.
func (u *Unit) SetSchedule(lastInspection, nextDue time.Time) error {
	if !nextDue.IsZero() && !lastInspection.IsZero() && nextDue.Before(lastInspection) {
		return ErrScheduleInverted
	}
	u.LastInspection = lastInspection
	u.NextDue = nextDue
	return nil
}

func (u Unit) checkSchedule() error {
	if !u.NextDue.IsZero() && !u.LastInspection.IsZero() && u.NextDue.Before(u.LastInspection) {
		return ErrScheduleInverted
	}
	return nil
}

// ValidStatus reports whether a unit status is supported.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusMaintenance, StatusRetired:
		return true
	default:
		return false
	}
}
