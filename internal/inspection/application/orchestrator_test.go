package application

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
	inspmem "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/infrastructure/memory"
	stockapp "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/application"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
	stockmem "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/infrastructure/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type orchestratorFixture struct {
	orchestrator *Orchestrator
	units        *inspmem.UnitRepository
	cylinders    *inspmem.CylinderRepository
	records      *inspmem.RecordRepository
	stockRepo    *stockmem.StockRepository
}

func newOrchestratorFixture(t *testing.T, now time.Time) *orchestratorFixture {
	t.Helper()
	logger := log.New(os.Stderr, "[orchestrator-test] ", log.LstdFlags)
	units := inspmem.NewUnitRepository()
	cylinders := inspmem.NewCylinderRepository()
	records := inspmem.NewRecordRepository()
	stockRepo := stockmem.NewStockRepository()

	coordinator, err := stockapp.NewCoordinator(stockRepo, logger, stockapp.WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	orchestrator, err := NewOrchestrator(inspmem.NewTxRunner(), units, cylinders, records,
		coordinator, compliance.DefaultCatalog(), logger, WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return &orchestratorFixture{
		orchestrator: orchestrator,
		units:        units,
		cylinders:    cylinders,
		records:      records,
		stockRepo:    stockRepo,
	}
}

func seedUnit(f *orchestratorFixture, id string, manufactured time.Time, brand string) inspection.Unit {
	unit := inspection.Unit{
		ID:              id,
		Serial:          "SER-" + id,
		Brand:           brand,
		Model:           "Coastal 8",
		ManufactureDate: manufactured,
		Status:          inspection.StatusActive,
		CreatedAt:       manufactured,
		UpdatedAt:       manufactured,
	}
	f.units.Seed(unit)
	return unit
}

func TestRecordInspectionApprovedReturnsUnitToActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newOrchestratorFixture(t, now)
	seedUnit(f, "unit-1", time.Date(2014, 5, 15, 0, 0, 0, 0, time.UTC), "RFD")

	outcome, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		UnitID:         "unit-1",
		Date:           now,
		Result:         inspection.ResultApproved,
		Technician:     "J. Medeiros",
		TestsPerformed: []string{compliance.TestVisualInspection, compliance.TestPressure},
	})
	if err != nil {
		t.Fatalf("RecordInspection: %v", err)
	}
	if outcome.Unit.Status != inspection.StatusActive {
		t.Fatalf("expected active, got %s", outcome.Unit.Status)
	}
	if !outcome.Unit.LastInspection.Equal(now) {
		t.Fatalf("expected last inspection %v, got %v", now, outcome.Unit.LastInspection)
	}
	wantDue := now.AddDate(1, 0, 0)
	if !outcome.Unit.NextDue.Equal(wantDue) {
		t.Fatalf("expected next due %v, got %v", wantDue, outcome.Unit.NextDue)
	}
	if len(f.records.All()) != 1 {
		t.Fatalf("expected 1 record, got %d", len(f.records.All()))
	}
}

func TestRecordInspectionRejectedOpensRemediationWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newOrchestratorFixture(t, now)
	seedUnit(f, "unit-1", time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC), "ZODIAC")

	outcome, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		UnitID:     "unit-1",
		Date:       now,
		Result:     inspection.ResultRejected,
		Technician: "J. Medeiros",
	})
	if err != nil {
		t.Fatalf("RecordInspection: %v", err)
	}
	if outcome.Unit.Status != inspection.StatusMaintenance {
		t.Fatalf("rejected unit should be in maintenance, got %s", outcome.Unit.Status)
	}
	wantDue := now.AddDate(0, 0, RemediationWindowDays)
	if !outcome.Unit.NextDue.Equal(wantDue) {
		t.Fatalf("expected remediation deadline %v, got %v", wantDue, outcome.Unit.NextDue)
	}
	if outcome.Record.Result != inspection.ResultRejected {
		t.Fatalf("record should carry the rejected result")
	}
}

func TestRecordInspectionShortfallAbortsEverything(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newOrchestratorFixture(t, now)
	seedUnit(f, "unit-1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "RFD")
	f.stockRepo.Seed(stock.StockItem{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 1, Minimum: 2})

	_, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		UnitID:     "unit-1",
		Date:       now,
		Result:     inspection.ResultApproved,
		Technician: "J. Medeiros",
		Consumed: []inspection.ConsumptionLine{
			{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 4},
		},
	})
	var insufficient *stock.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if len(f.records.All()) != 0 {
		t.Fatalf("no record should be persisted on shortfall")
	}
	unit, err := f.units.Get(context.Background(), "unit-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !unit.NextDue.IsZero() || !unit.LastInspection.IsZero() {
		t.Fatalf("unit schedule must be untouched on shortfall, got %+v", unit)
	}
}

func TestRecordInspectionConsumesStockAndLogsMovement(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := newOrchestratorFixture(t, now)
	seedUnit(f, "unit-1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "RFD")
	f.stockRepo.Seed(stock.StockItem{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 6, Minimum: 2})

	outcome, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		UnitID:     "unit-1",
		Date:       now,
		Result:     inspection.ResultApprovedConditions,
		Technician: "J. Medeiros",
		Consumed: []inspection.ConsumptionLine{
			{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("RecordInspection: %v", err)
	}
	item, err := f.stockRepo.GetItem(context.Background(), stock.ItemKey{Name: "Foguetes com Paraquedas", Category: "Inspeção"})
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("expected 2 left, got %d", item.Quantity)
	}
	movements := f.stockRepo.Movements()
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Reason != "inspection "+outcome.Record.ID {
		t.Fatalf("movement reason should reference the record, got %q", movements[0].Reason)
	}
	if outcome.Unit.Status != inspection.StatusActive {
		t.Fatalf("approved-with-conditions keeps the unit active, got %s", outcome.Unit.Status)
	}
}

func TestRecordInspectionUnknownUnit(t *testing.T) {
	f := newOrchestratorFixture(t, time.Now().UTC())
	_, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		UnitID:     "unit-missing",
		Date:       time.Now().UTC(),
		Result:     inspection.ResultApproved,
		Technician: "J. Medeiros",
	})
	if !errors.Is(err, inspection.ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestRecordInspectionRetiredUnitRefused(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newOrchestratorFixture(t, now)
	unit := seedUnit(f, "unit-1", time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), "RFD")
	unit.Status = inspection.StatusRetired
	f.units.Seed(unit)

	_, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		UnitID:     "unit-1",
		Date:       now,
		Result:     inspection.ResultApproved,
		Technician: "J. Medeiros",
	})
	if !errors.Is(err, inspection.ErrUnitRetired) {
		t.Fatalf("expected ErrUnitRetired, got %v", err)
	}
}

func TestRecordInspectionValidationReportsEveryField(t *testing.T) {
	f := newOrchestratorFixture(t, time.Now().UTC())
	_, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		Result: "maybe",
		Consumed: []inspection.ConsumptionLine{
			{Name: "", Quantity: 0},
		},
	})
	var verr *inspection.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 6 {
		t.Fatalf("expected 6 field problems, got %d: %v", len(verr.Fields), verr.Fields)
	}
}

func TestRecordInspectionBrandPeriodicity(t *testing.T) {
	now := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	f := newOrchestratorFixture(t, now)
	seedUnit(f, "unit-plastimo", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), "PLASTIMO")

	outcome, err := f.orchestrator.RecordInspection(context.Background(), RecordInspectionRequest{
		UnitID:     "unit-plastimo",
		Date:       now,
		Result:     inspection.ResultApproved,
		Technician: "J. Medeiros",
	})
	if err != nil {
		t.Fatalf("RecordInspection: %v", err)
	}
	wantDue := time.Date(2028, 1, 15, 0, 0, 0, 0, time.UTC)
	if !outcome.Unit.NextDue.Equal(wantDue) {
		t.Fatalf("tri-annual brand: expected %v, got %v", wantDue, outcome.Unit.NextDue)
	}
}

func TestRecordCylinderTest(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newOrchestratorFixture(t, now)
	f.cylinders.Seed(inspection.Cylinder{
		ID: "cyl-1", Serial: "CYL-001", WorkingPressureBar: 200, TestPressureBar: 300,
		CreatedAt: now, UpdatedAt: now,
	})

	outcome, err := f.orchestrator.RecordCylinderTest(context.Background(), RecordCylinderTestRequest{
		CylinderID: "cyl-1",
		Date:       now,
		Result:     inspection.ResultApproved,
		Technician: "J. Medeiros",
	})
	if err != nil {
		t.Fatalf("RecordCylinderTest: %v", err)
	}
	wantNext := now.AddDate(inspection.CylinderTestIntervalYears, 0, 0)
	if !outcome.Cylinder.NextTest.Equal(wantNext) {
		t.Fatalf("expected next test %v, got %v", wantNext, outcome.Cylinder.NextTest)
	}

	rejected, err := f.orchestrator.RecordCylinderTest(context.Background(), RecordCylinderTestRequest{
		CylinderID: "cyl-1",
		Date:       now.AddDate(0, 1, 0),
		Result:     inspection.ResultRejected,
		Technician: "J. Medeiros",
	})
	if err != nil {
		t.Fatalf("RecordCylinderTest rejected: %v", err)
	}
	wantNext = now.AddDate(0, 1, RemediationWindowDays)
	if !rejected.Cylinder.NextTest.Equal(wantNext) {
		t.Fatalf("rejected cylinder: expected %v, got %v", wantNext, rejected.Cylinder.NextTest)
	}
}
