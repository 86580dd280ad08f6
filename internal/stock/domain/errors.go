package stock

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a missing stock item.
	ErrNotFound = errors.New("stock: item not found")
	// ErrTransactionConflict indicates concurrent-write contention. Callers
	// may retry after confirming the prior attempt did not commit.
	ErrTransactionConflict = errors.New("stock: transaction conflict")
)

// Shortfall describes one item whose consumption could not be covered.
type Shortfall struct {
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

// InsufficientStockError carries every shortfall in the batch, not just the
// first, so the whole problem is reported at once.
type InsufficientStockError struct {
	Shortfalls []Shortfall `json:"shortfalls"`
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (available %d, required %d)", s.Name, s.Available, s.Required))
	}
	return "stock: insufficient stock: " + strings.Join(parts, "; ")
}

// FieldError names one invalid input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError enumerates every invalid line of a batch request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "stock: invalid request: " + strings.Join(parts, "; ")
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
