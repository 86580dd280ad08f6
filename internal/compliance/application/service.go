package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/observability/metrics"
)

// ErrUnitNotFound is returned when the evaluated unit does not exist.
var ErrUnitNotFound = errors.New("compliance: unit not found")

// UnitSnapshot is the slice of unit state the evaluator needs.
type UnitSnapshot struct {
	ID              string
	Serial          string
	Brand           string
	Status          string
	ManufactureDate time.Time
	LastInspection  time.Time
}

// UnitReader resolves unit snapshots. Returns ErrUnitNotFound for unknown ids.
type UnitReader interface {
	Find(ctx context.Context, id string) (*UnitSnapshot, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// UnitEvaluation is the API-facing evaluation of one unit.
type UnitEvaluation struct {
	UnitID        string                      `json:"unit_id"`
	Serial        string                      `json:"serial"`
	Brand         string                      `json:"brand"`
	Status        string                      `json:"status"`
	AgeYears      int                         `json:"age_years"`
	RequiredTests []compliance.RuleDefinition `json:"required_tests"`
	NextDue       time.Time                   `json:"next_due"`
	BrandKnown    bool                        `json:"brand_known"`
	EstimatedCost decimal.Decimal             `json:"estimated_cost"`
}

// Service evaluates compliance for stored units. The catalog is immutable
// after construction.
type Service struct {
	units   UnitReader
	catalog compliance.Catalog
	clock   Clock
	logger  *log.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// NewService constructs the evaluation service.
func NewService(units UnitReader, catalog compliance.Catalog, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if units == nil {
		return nil, errors.New("compliance: nil unit reader")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	service := &Service{units: units, catalog: catalog, clock: systemClock{}, logger: logger}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// EvaluateUnit computes the current requirements and next deadline of one
// unit. Pure read; an unknown brand is reported, never an error.
func (s *Service) EvaluateUnit(ctx context.Context, unitID string) (*UnitEvaluation, error) {
	if s == nil {
		return nil, errors.New("compliance: nil service")
	}
	unit, err := s.units.Find(ctx, unitID)
	if err != nil {
		return nil, err
	}

	evaluation := compliance.Evaluate(s.catalog, unit.ManufactureDate, unit.Brand, unit.LastInspection, s.clock.Now())
	if !evaluation.BrandKnown {
		metrics.IncConfigurationGap()
		if s.logger != nil {
			s.logger.Printf("configuration gap: brand %q has no periodicity, annual assumed (unit=%s)", unit.Brand, unit.ID)
		}
	}
	return &UnitEvaluation{
		UnitID:        unit.ID,
		Serial:        unit.Serial,
		Brand:         unit.Brand,
		Status:        unit.Status,
		AgeYears:      evaluation.AgeYears,
		RequiredTests: evaluation.RequiredTests,
		NextDue:       evaluation.NextDue,
		BrandKnown:    evaluation.BrandKnown,
		EstimatedCost: compliance.EstimateCost(evaluation.RequiredTests),
	}, nil
}

// Catalog returns the active rule catalog.
func (s *Service) Catalog() compliance.Catalog {
	return s.catalog
}
