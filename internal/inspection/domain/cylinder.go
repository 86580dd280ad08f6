package inspection

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Hydrostatic test interval for inflation cylinders.
const CylinderTestIntervalYears = 5

// Cylinder is a pressure cylinder subject to periodic hydrostatic testing.
type Cylinder struct {
	ID                 string    `json:"id"`
	Serial             string    `json:"serial"`
	WorkingPressureBar float64   `json:"working_pressure_bar"`
	TestPressureBar    float64   `json:"test_pressure_bar"`
	LastTest           time.Time `json:"last_test,omitempty"`
	NextTest           time.Time `json:"next_test,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewCylinderID generates a cylinder id.
func NewCylinderID() string {
	return "cyl-" + uuid.NewString()
}

// Validate checks cylinder invariants.
func (c Cylinder) Validate() error {
	if strings.TrimSpace(c.Serial) == "" {
		return errors.New("inspection: cylinder serial required")
	}
	if c.WorkingPressureBar <= 0 {
		return errors.New("inspection: cylinder working pressure must be positive")
	}
	if c.TestPressureBar < c.WorkingPressureBar {
		return errors.New("inspection: cylinder test pressure below working pressure")
	}
	if !c.NextTest.IsZero() && !c.LastTest.IsZero() && c.NextTest.Before(c.LastTest) {
		return ErrScheduleInverted
	}
	return nil
}

// SetTestSchedule updates the test dates, enforcing the same temporal
// invariant as Unit.SetSchedule.
func (c *Cylinder) SetTestSchedule(lastTest, nextTest time.Time) error {
	if !nextTest.IsZero() && !lastTest.IsZero() && nextTest.Before(lastTest) {
		return ErrScheduleInverted
	}
	c.LastTest = lastTest
	c.NextTest = nextTest
	return nil
}
