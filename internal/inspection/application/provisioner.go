package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/observability/metrics"
)

// VesselChecker verifies vessel references against masterdata.
type VesselChecker interface {
	Exists(ctx context.Context, vesselID string) (bool, error)
}

// ProvisionUnitRequest registers a new unit into service.
type ProvisionUnitRequest struct {
	Serial          string                       `json:"serial"`
	Brand           string                       `json:"brand"`
	Model           string                       `json:"model"`
	VesselID        string                       `json:"vessel_id"`
	ManufactureDate time.Time                    `json:"manufacture_date"`
	Pack            []inspection.ConsumptionLine `json:"pack"`
	Responsible     string                       `json:"responsible"`
}

// ProvisionCylinderRequest registers a new cylinder.
type ProvisionCylinderRequest struct {
	Serial             string    `json:"serial"`
	WorkingPressureBar float64   `json:"working_pressure_bar"`
	TestPressureBar    float64   `json:"test_pressure_bar"`
	LastTest           time.Time `json:"last_test"`
}

// Provisioner registers new units and cylinders. Unit creation and the
// consumption of its provisioning pack share one transaction.
type Provisioner struct {
	txRunner  TxRunner
	units     UnitRepository
	cylinders CylinderRepository
	consumer  StockConsumer
	vessels   VesselChecker
	catalog   compliance.Catalog
	clock     Clock
	logger    *log.Logger
}

// ProvisionerOption customizes the provisioner.
type ProvisionerOption func(*Provisioner)

// WithProvisionerClock assigns a clock.
func WithProvisionerClock(clock Clock) ProvisionerOption {
	return func(p *Provisioner) { p.clock = clock }
}

// WithVesselChecker enables vessel reference validation.
func WithVesselChecker(vessels VesselChecker) ProvisionerOption {
	return func(p *Provisioner) { p.vessels = vessels }
}

// NewProvisioner constructs a provisioner.
func NewProvisioner(
	txRunner TxRunner,
	units UnitRepository,
	cylinders CylinderRepository,
	consumer StockConsumer,
	catalog compliance.Catalog,
	logger *log.Logger,
	opts ...ProvisionerOption,
) (*Provisioner, error) {
	if txRunner == nil {
		return nil, errors.New("inspection: nil tx runner")
	}
	if units == nil || cylinders == nil {
		return nil, errors.New("inspection: nil repository")
	}
	if consumer == nil {
		return nil, errors.New("inspection: nil stock consumer")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	provisioner := &Provisioner{
		txRunner:  txRunner,
		units:     units,
		cylinders: cylinders,
		consumer:  consumer,
		catalog:   catalog,
		clock:     systemClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(provisioner)
	}
	return provisioner, nil
}

// ProvisionUnit creates a unit and consumes its provisioning pack atomically.
// The initial inspection deadline counts from the manufacture date.
func (p *Provisioner) ProvisionUnit(ctx context.Context, req ProvisionUnitRequest) (*inspection.Unit, error) {
	start := time.Now()
	unit, err := p.provisionUnit(ctx, req)
	metrics.ObserveProvision(resultLabel(err), time.Since(start))
	return unit, err
}

func (p *Provisioner) provisionUnit(ctx context.Context, req ProvisionUnitRequest) (*inspection.Unit, error) {
	if p == nil {
		return nil, errors.New("inspection: nil provisioner")
	}
	verr := &inspection.ValidationError{}
	if strings.TrimSpace(req.Serial) == "" {
		verr.Add("serial", "required")
	}
	if strings.TrimSpace(req.Brand) == "" {
		verr.Add("brand", "required")
	}
	if req.ManufactureDate.IsZero() {
		verr.Add("manufacture_date", "required")
	}
	for i, line := range req.Pack {
		if strings.TrimSpace(line.Name) == "" {
			verr.Add(fmt.Sprintf("pack[%d].name", i), "required")
		}
		if line.Quantity <= 0 {
			verr.Add(fmt.Sprintf("pack[%d].quantity", i), "must be positive")
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if req.VesselID != "" && p.vessels != nil {
		ok, err := p.vessels.Exists(ctx, req.VesselID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, inspection.ErrUnknownVessel
		}
	}

	if existing, err := p.units.GetBySerial(ctx, strings.TrimSpace(req.Serial)); err == nil && existing != nil {
		return nil, inspection.ErrDuplicateSerial
	} else if err != nil && !errors.Is(err, inspection.ErrNotFound) {
		return nil, err
	}

	now := p.clock.Now()
	evaluation := compliance.Evaluate(p.catalog, req.ManufactureDate, req.Brand, time.Time{}, now)
	if !evaluation.BrandKnown {
		metrics.IncConfigurationGap()
		if p.logger != nil {
			p.logger.Printf("configuration gap: brand %q has no periodicity, annual assumed (serial=%s)", req.Brand, req.Serial)
		}
	}

	unit := &inspection.Unit{
		ID:              inspection.NewUnitID(),
		Serial:          strings.TrimSpace(req.Serial),
		Brand:           compliance.CanonicalBrand(req.Brand),
		Model:           strings.TrimSpace(req.Model),
		VesselID:        req.VesselID,
		ManufactureDate: req.ManufactureDate,
		Status:          inspection.StatusActive,
		NextDue:         evaluation.NextDue,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := unit.Validate(); err != nil {
		return nil, err
	}

	err := p.txRunner.RunInTx(ctx, func(tx *sql.Tx) error {
		if len(req.Pack) > 0 {
			if _, err := p.consumer.ConsumeTx(ctx, tx, consumptionToLines(req.Pack), "provisioning "+unit.ID, req.Responsible); err != nil {
				return err
			}
		}
		return p.units.Create(ctx, tx, unit)
	})
	if err != nil {
		return nil, err
	}
	if p.logger != nil {
		p.logger.Printf("unit provisioned: id=%s serial=%s next_due=%s", unit.ID, unit.Serial, unit.NextDue.Format("2006-01-02"))
	}
	return unit, nil
}

// ProvisionCylinder creates a cylinder. The first retest date counts from the
// last hydrostatic test when one is given.
func (p *Provisioner) ProvisionCylinder(ctx context.Context, req ProvisionCylinderRequest) (*inspection.Cylinder, error) {
	if p == nil {
		return nil, errors.New("inspection: nil provisioner")
	}
	now := p.clock.Now()
	cylinder := &inspection.Cylinder{
		ID:                 inspection.NewCylinderID(),
		Serial:             strings.TrimSpace(req.Serial),
		WorkingPressureBar: req.WorkingPressureBar,
		TestPressureBar:    req.TestPressureBar,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if !req.LastTest.IsZero() {
		if err := cylinder.SetTestSchedule(req.LastTest, req.LastTest.AddDate(inspection.CylinderTestIntervalYears, 0, 0)); err != nil {
			return nil, err
		}
	}
	if err := cylinder.Validate(); err != nil {
		return nil, err
	}
	err := p.txRunner.RunInTx(ctx, func(tx *sql.Tx) error {
		return p.cylinders.Create(ctx, tx, cylinder)
	})
	if err != nil {
		return nil, err
	}
	return cylinder, nil
}
