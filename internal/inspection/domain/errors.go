package inspection

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownUnit is returned when a unit reference does not resolve.
	ErrUnknownUnit = errors.New("inspection: unknown unit")
	// ErrUnknownCylinder is returned when a cylinder reference does not resolve.
	ErrUnknownCylinder = errors.New("inspection: unknown cylinder")
	// ErrUnknownVessel is returned when a vessel reference does not resolve.
	ErrUnknownVessel = errors.New("inspection: unknown vessel")
	// ErrNotFound indicates a missing inspection record.
	ErrNotFound = errors.New("inspection: record not found")
	// ErrScheduleInverted is returned when next-due would precede last-inspection.
	ErrScheduleInverted = errors.New("inspection: next due before last inspection")
	// ErrDuplicateSerial is returned when provisioning reuses a serial number.
	ErrDuplicateSerial = errors.New("inspection: serial already registered")
	// ErrUnitRetired is returned when an operation targets a retired unit.
	ErrUnitRetired = errors.New("inspection: unit is retired")
)

// FieldError names one invalid input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries every invalid field of a request so operators can
// fix all of them in one pass.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "inspection: invalid request: " + strings.Join(parts, "; ")
}

// Add appends a field problem.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Err returns the error when any field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
