package units

import (
	"context"
	"errors"
	"fmt"

	complianceapp "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/application"
	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
)

// UnitSource is the subset of the unit store the evaluator reads through.
type UnitSource interface {
	Get(ctx context.Context, id string) (*inspection.Unit, error)
}

// Reader adapts the unit store to the compliance evaluation port.
type Reader struct {
	source UnitSource
}

// NewReader constructs a reader.
func NewReader(source UnitSource) (*Reader, error) {
	if source == nil {
		return nil, errors.New("unit reader: nil source")
	}
	return &Reader{source: source}, nil
}

// Find resolves a unit snapshot.
func (r *Reader) Find(ctx context.Context, id string) (*complianceapp.UnitSnapshot, error) {
	if r == nil || r.source == nil {
		return nil, errors.New("unit reader: not initialized")
	}
	unit, err := r.source.Get(ctx, id)
	if err != nil {
		if errors.Is(err, inspection.ErrNotFound) {
			return nil, complianceapp.ErrUnitNotFound
		}
		return nil, fmt.Errorf("unit reader: %w", err)
	}
	return &complianceapp.UnitSnapshot{
		ID:              unit.ID,
		Serial:          unit.Serial,
		Brand:           unit.Brand,
		Status:          unit.Status,
		ManufactureDate: unit.ManufactureDate,
		LastInspection:  unit.LastInspection,
	}, nil
}
