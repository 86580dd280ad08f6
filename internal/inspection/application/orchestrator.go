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
	stockapp "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/application"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// RemediationWindowDays is how long a rejected asset gets before it must be
// re-presented for inspection.
const RemediationWindowDays = 30

// TxRunner executes a function inside one database transaction. The memory
// implementation passes a nil tx; repositories accept that.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// UnitRepository persists units.
type UnitRepository interface {
	Get(ctx context.Context, id string) (*inspection.Unit, error)
	GetBySerial(ctx context.Context, serial string) (*inspection.Unit, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*inspection.Unit, error)
	Create(ctx context.Context, tx *sql.Tx, unit *inspection.Unit) error
	Update(ctx context.Context, tx *sql.Tx, unit *inspection.Unit) error
	List(ctx context.Context) ([]inspection.Unit, error)
}

// CylinderRepository persists cylinders.
type CylinderRepository interface {
	Get(ctx context.Context, id string) (*inspection.Cylinder, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*inspection.Cylinder, error)
	Create(ctx context.Context, tx *sql.Tx, cylinder *inspection.Cylinder) error
	Update(ctx context.Context, tx *sql.Tx, cylinder *inspection.Cylinder) error
}

// RecordRepository persists inspection records. Records are append-only.
type RecordRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, record *inspection.InspectionRecord) error
	Get(ctx context.Context, id string) (*inspection.InspectionRecord, error)
	ListByUnit(ctx context.Context, unitID string, limit int) ([]inspection.InspectionRecord, error)
	ListByCylinder(ctx context.Context, cylinderID string, limit int) ([]inspection.InspectionRecord, error)
}

// StockConsumer joins a caller-owned transaction to adjust inventory.
// Satisfied by the stock coordinator.
type StockConsumer interface {
	ConsumeTx(ctx context.Context, tx *sql.Tx, lines []stock.Line, reason, responsible string) (*stockapp.Result, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// RecordInspectionRequest is the input for recording a unit inspection.
type RecordInspectionRequest struct {
	UnitID         string                       `json:"unit_id"`
	Date           time.Time                    `json:"date"`
	Result         string                       `json:"result"`
	Technician     string                       `json:"technician"`
	TestsPerformed []string                     `json:"tests_performed"`
	Consumed       []inspection.ConsumptionLine `json:"consumed"`
}

// RecordCylinderTestRequest is the input for recording a hydrostatic test.
type RecordCylinderTestRequest struct {
	CylinderID string                       `json:"cylinder_id"`
	Date       time.Time                    `json:"date"`
	Result     string                       `json:"result"`
	Technician string                       `json:"technician"`
	Consumed   []inspection.ConsumptionLine `json:"consumed"`
}

// RecordOutcome reports what one recording persisted.
type RecordOutcome struct {
	Record   inspection.InspectionRecord `json:"record"`
	Unit     *inspection.Unit            `json:"unit,omitempty"`
	Cylinder *inspection.Cylinder        `json:"cylinder,omitempty"`
}

// Orchestrator records inspections: one call adjusts stock, appends the
// record, and moves the asset's status and schedule, all inside a single
// transaction. Either everything lands or nothing does.
type Orchestrator struct {
	txRunner  TxRunner
	units     UnitRepository
	cylinders CylinderRepository
	records   RecordRepository
	consumer  StockConsumer
	catalog   compliance.Catalog
	clock     Clock
	logger    *log.Logger
}

// OrchestratorOption customizes the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock assigns a clock.
func WithClock(clock Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = clock }
}

// NewOrchestrator constructs an orchestrator.
func NewOrchestrator(
	txRunner TxRunner,
	units UnitRepository,
	cylinders CylinderRepository,
	records RecordRepository,
	consumer StockConsumer,
	catalog compliance.Catalog,
	logger *log.Logger,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	if txRunner == nil {
		return nil, errors.New("inspection: nil tx runner")
	}
	if units == nil || cylinders == nil || records == nil {
		return nil, errors.New("inspection: nil repository")
	}
	if consumer == nil {
		return nil, errors.New("inspection: nil stock consumer")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	orchestrator := &Orchestrator{
		txRunner:  txRunner,
		units:     units,
		cylinders: cylinders,
		records:   records,
		consumer:  consumer,
		catalog:   catalog,
		clock:     systemClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(orchestrator)
	}
	return orchestrator, nil
}

// RecordInspection records one unit inspection. An approved result returns
// the unit to active with its full periodicity; a rejection sends it to
// maintenance with a short remediation deadline. Consumption shortfalls abort
// the whole call with nothing persisted.
func (o *Orchestrator) RecordInspection(ctx context.Context, req RecordInspectionRequest) (*RecordOutcome, error) {
	start := time.Now()
	outcome, err := o.recordInspection(ctx, req)
	metrics.ObserveInspection(resultLabel(err), time.Since(start))
	return outcome, err
}

func (o *Orchestrator) recordInspection(ctx context.Context, req RecordInspectionRequest) (*RecordOutcome, error) {
	if o == nil {
		return nil, errors.New("inspection: nil orchestrator")
	}
	if err := validateRecordRequest(req.UnitID, "unit_id", req.Date, req.Result, req.Technician, req.Consumed); err != nil {
		return nil, err
	}

	now := o.clock.Now()
	record := inspection.InspectionRecord{
		ID:             inspection.NewRecordID(),
		UnitID:         req.UnitID,
		Date:           req.Date,
		Result:         req.Result,
		Technician:     strings.TrimSpace(req.Technician),
		TestsPerformed: req.TestsPerformed,
		Consumed:       req.Consumed,
		CreatedAt:      now,
	}

	var outcome RecordOutcome
	err := o.txRunner.RunInTx(ctx, func(tx *sql.Tx) error {
		unit, err := o.units.GetForUpdate(ctx, tx, req.UnitID)
		if err != nil {
			if errors.Is(err, inspection.ErrNotFound) {
				return inspection.ErrUnknownUnit
			}
			return err
		}
		if unit.Status == inspection.StatusRetired {
			return inspection.ErrUnitRetired
		}

		if len(req.Consumed) > 0 {
			if _, err := o.consumer.ConsumeTx(ctx, tx, consumptionToLines(req.Consumed), "inspection "+record.ID, record.Technician); err != nil {
				return err
			}
		}
		if err := o.records.Insert(ctx, tx, &record); err != nil {
			return err
		}
		if err := o.applyResult(unit, record, now); err != nil {
			return err
		}
		if err := o.units.Update(ctx, tx, unit); err != nil {
			return err
		}
		outcome = RecordOutcome{Record: record, Unit: unit}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if o.logger != nil {
		o.logger.Printf("inspection recorded: unit=%s result=%s next_due=%s",
			outcome.Unit.ID, record.Result, outcome.Unit.NextDue.Format("2006-01-02"))
	}
	return &outcome, nil
}

// applyResult moves the unit's status and schedule after one recorded
// inspection.
func (o *Orchestrator) applyResult(unit *inspection.Unit, record inspection.InspectionRecord, now time.Time) error {
	if record.Result == inspection.ResultRejected {
		unit.Status = inspection.StatusMaintenance
		unit.UpdatedAt = now
		return unit.SetSchedule(record.Date, record.Date.AddDate(0, 0, RemediationWindowDays))
	}

	evaluation := compliance.Evaluate(o.catalog, unit.ManufactureDate, unit.Brand, record.Date, record.Date)
	if !evaluation.BrandKnown {
		metrics.IncConfigurationGap()
		if o.logger != nil {
			o.logger.Printf("configuration gap: brand %q has no periodicity, annual assumed (unit=%s)", unit.Brand, unit.ID)
		}
	}
	unit.Status = inspection.StatusActive
	unit.UpdatedAt = now
	return unit.SetSchedule(record.Date, evaluation.NextDue)
}

// RecordCylinderTest records a hydrostatic test. Approved cylinders get the
// standard five-year retest date, rejected ones the remediation deadline.
func (o *Orchestrator) RecordCylinderTest(ctx context.Context, req RecordCylinderTestRequest) (*RecordOutcome, error) {
	start := time.Now()
	outcome, err := o.recordCylinderTest(ctx, req)
	metrics.ObserveInspection(resultLabel(err), time.Since(start))
	return outcome, err
}

func (o *Orchestrator) recordCylinderTest(ctx context.Context, req RecordCylinderTestRequest) (*RecordOutcome, error) {
	if o == nil {
		return nil, errors.New("inspection: nil orchestrator")
	}
	if err := validateRecordRequest(req.CylinderID, "cylinder_id", req.Date, req.Result, req.Technician, req.Consumed); err != nil {
		return nil, err
	}

	now := o.clock.Now()
	record := inspection.InspectionRecord{
		ID:         inspection.NewRecordID(),
		CylinderID: req.CylinderID,
		Date:       req.Date,
		Result:     req.Result,
		Technician: strings.TrimSpace(req.Technician),
		Consumed:   req.Consumed,
		CreatedAt:  now,
	}

	var outcome RecordOutcome
	err := o.txRunner.RunInTx(ctx, func(tx *sql.Tx) error {
		cylinder, err := o.cylinders.GetForUpdate(ctx, tx, req.CylinderID)
		if err != nil {
			if errors.Is(err, inspection.ErrNotFound) {
				return inspection.ErrUnknownCylinder
			}
			return err
		}

		if len(req.Consumed) > 0 {
			if _, err := o.consumer.ConsumeTx(ctx, tx, consumptionToLines(req.Consumed), "cylinder test "+record.ID, record.Technician); err != nil {
				return err
			}
		}
		if err := o.records.Insert(ctx, tx, &record); err != nil {
			return err
		}

		nextTest := record.Date.AddDate(inspection.CylinderTestIntervalYears, 0, 0)
		if record.Result == inspection.ResultRejected {
			nextTest = record.Date.AddDate(0, 0, RemediationWindowDays)
		}
		if err := cylinder.SetTestSchedule(record.Date, nextTest); err != nil {
			return err
		}
		cylinder.UpdatedAt = now
		if err := o.cylinders.Update(ctx, tx, cylinder); err != nil {
			return err
		}
		outcome = RecordOutcome{Record: record, Cylinder: cylinder}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// History lists the inspection records of one unit, newest first.
func (o *Orchestrator) History(ctx context.Context, unitID string, limit int) ([]inspection.InspectionRecord, error) {
	if o == nil {
		return nil, errors.New("inspection: nil orchestrator")
	}
	if strings.TrimSpace(unitID) == "" {
		return nil, fmt.Errorf("inspection: unit id required")
	}
	return o.records.ListByUnit(ctx, unitID, limit)
}

// Record fetches one inspection record by id.
func (o *Orchestrator) Record(ctx context.Context, id string) (*inspection.InspectionRecord, error) {
	if o == nil {
		return nil, errors.New("inspection: nil orchestrator")
	}
	return o.records.Get(ctx, id)
}

func validateRecordRequest(targetID, targetField string, date time.Time, result, technician string, consumed []inspection.ConsumptionLine) error {
	verr := &inspection.ValidationError{}
	if strings.TrimSpace(targetID) == "" {
		verr.Add(targetField, "required")
	}
	if date.IsZero() {
		verr.Add("date", "required")
	}
	if !inspection.ValidResult(result) {
		verr.Add("result", "must be approved, approved_with_conditions, or rejected")
	}
	if strings.TrimSpace(technician) == "" {
		verr.Add("technician", "required")
	}
	for i, line := range consumed {
		if strings.TrimSpace(line.Name) == "" {
			verr.Add(fmt.Sprintf("consumed[%d].name", i), "required")
		}
		if line.Quantity <= 0 {
			verr.Add(fmt.Sprintf("consumed[%d].quantity", i), "must be positive")
		}
	}
	return verr.Err()
}

func consumptionToLines(consumed []inspection.ConsumptionLine) []stock.Line {
	lines := make([]stock.Line, 0, len(consumed))
	for _, c := range consumed {
		lines = append(lines, stock.Line{Name: c.Name, Category: c.Category, Quantity: c.Quantity})
	}
	return lines
}

func resultLabel(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
