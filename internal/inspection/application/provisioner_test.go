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

type stubVesselChecker struct{ known map[string]bool }

func (s stubVesselChecker) Exists(_ context.Context, id string) (bool, error) {
	return s.known[id], nil
}

type provisionerFixture struct {
	provisioner *Provisioner
	units       *inspmem.UnitRepository
	stockRepo   *stockmem.StockRepository
}

func newProvisionerFixture(t *testing.T, now time.Time, opts ...ProvisionerOption) *provisionerFixture {
	t.Helper()
	logger := log.New(os.Stderr, "[provisioner-test] ", log.LstdFlags)
	units := inspmem.NewUnitRepository()
	stockRepo := stockmem.NewStockRepository()
	coordinator, err := stockapp.NewCoordinator(stockRepo, logger, stockapp.WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	opts = append([]ProvisionerOption{WithProvisionerClock(fixedClock{now: now})}, opts...)
	provisioner, err := NewProvisioner(inspmem.NewTxRunner(), units, inspmem.NewCylinderRepository(),
		coordinator, compliance.DefaultCatalog(), logger, opts...)
	if err != nil {
		t.Fatalf("NewProvisioner: %v", err)
	}
	return &provisionerFixture{provisioner: provisioner, units: units, stockRepo: stockRepo}
}

func TestProvisionUnitConsumesPackAtomically(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newProvisionerFixture(t, now)
	f.stockRepo.Seed(stock.StockItem{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 10, Minimum: 2})

	unit, err := f.provisioner.ProvisionUnit(context.Background(), ProvisionUnitRequest{
		Serial:          "RFT-100",
		Brand:           "plastimo",
		Model:           "Coastal 8",
		ManufactureDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Pack: []inspection.ConsumptionLine{
			{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 4},
		},
		Responsible: "A. Sousa",
	})
	if err != nil {
		t.Fatalf("ProvisionUnit: %v", err)
	}
	if unit.Brand != "PLASTIMO" {
		t.Fatalf("brand should be canonical, got %q", unit.Brand)
	}
	wantDue := time.Date(2028, 3, 1, 0, 0, 0, 0, time.UTC)
	if !unit.NextDue.Equal(wantDue) {
		t.Fatalf("expected first due %v, got %v", wantDue, unit.NextDue)
	}
	item, err := f.stockRepo.GetItem(context.Background(), stock.ItemKey{Name: "Foguetes com Paraquedas", Category: "Inspeção"})
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Quantity != 6 {
		t.Fatalf("expected 6 left after pack consumption, got %d", item.Quantity)
	}
	stored, err := f.units.Get(context.Background(), unit.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != inspection.StatusActive {
		t.Fatalf("new unit should be active, got %s", stored.Status)
	}
}

func TestProvisionUnitShortfallCreatesNothing(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newProvisionerFixture(t, now)

	_, err := f.provisioner.ProvisionUnit(context.Background(), ProvisionUnitRequest{
		Serial:          "RFT-101",
		Brand:           "RFD",
		ManufactureDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Pack: []inspection.ConsumptionLine{
			{Name: "Fachos de Mão", Category: "Inspeção", Quantity: 2},
		},
	})
	var insufficient *stock.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	units, err := f.units.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(units) != 0 {
		t.Fatalf("no unit should exist after shortfall, got %d", len(units))
	}
}

func TestProvisionUnitDuplicateSerial(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newProvisionerFixture(t, now)
	f.units.Seed(inspection.Unit{
		ID: "unit-1", Serial: "RFT-100", Brand: "RFD", Status: inspection.StatusActive,
		ManufactureDate: now.AddDate(-2, 0, 0), CreatedAt: now, UpdatedAt: now,
	})

	_, err := f.provisioner.ProvisionUnit(context.Background(), ProvisionUnitRequest{
		Serial:          "RFT-100",
		Brand:           "RFD",
		ManufactureDate: now.AddDate(-1, 0, 0),
	})
	if !errors.Is(err, inspection.ErrDuplicateSerial) {
		t.Fatalf("expected ErrDuplicateSerial, got %v", err)
	}
}

func TestProvisionUnitUnknownVessel(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newProvisionerFixture(t, now, WithVesselChecker(stubVesselChecker{known: map[string]bool{"vessel-1": true}}))

	_, err := f.provisioner.ProvisionUnit(context.Background(), ProvisionUnitRequest{
		Serial:          "RFT-102",
		Brand:           "RFD",
		VesselID:        "vessel-unknown",
		ManufactureDate: now.AddDate(-1, 0, 0),
	})
	if !errors.Is(err, inspection.ErrUnknownVessel) {
		t.Fatalf("expected ErrUnknownVessel, got %v", err)
	}
}

func TestProvisionCylinderSchedulesFirstRetest(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newProvisionerFixture(t, now)

	lastTest := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	cylinder, err := f.provisioner.ProvisionCylinder(context.Background(), ProvisionCylinderRequest{
		Serial:             "CYL-100",
		WorkingPressureBar: 200,
		TestPressureBar:    300,
		LastTest:           lastTest,
	})
	if err != nil {
		t.Fatalf("ProvisionCylinder: %v", err)
	}
	wantNext := lastTest.AddDate(inspection.CylinderTestIntervalYears, 0, 0)
	if !cylinder.NextTest.Equal(wantNext) {
		t.Fatalf("expected next test %v, got %v", wantNext, cylinder.NextTest)
	}
}
