package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
	inspapp "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/application"
	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
	insppg "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/infrastructure/postgres"
	stockapp "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/application"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
	stockpg "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestRecordInspectionClosedLoop_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cleanup(ctx, t, db)

	seedStock(ctx, t, db, "CO2 cartridge 100g", "cylinder", 6)
	seedStock(ctx, t, db, "Repair patch kit", "raft", 3)

	unitID := seedUnit(ctx, t, db, "IT-RAFT-001", "PLASTIMO",
		time.Date(2018, time.March, 10, 0, 0, 0, 0, time.UTC))

	orch := buildOrchestrator(t, db)

	inspectedAt := time.Date(2026, time.February, 2, 10, 0, 0, 0, time.UTC)
	outcome, err := orch.RecordInspection(ctx, inspapp.RecordInspectionRequest{
		UnitID:         unitID,
		Date:           inspectedAt,
		Result:         inspection.ResultApproved,
		Technician:     "it-tech",
		TestsPerformed: []string{compliance.TestVisualInspection, compliance.TestPressure},
		Consumed: []inspection.ConsumptionLine{
			{Name: "CO2 cartridge 100g", Category: "cylinder", Quantity: 2},
			{Name: "Repair patch kit", Category: "raft", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("record inspection: %v", err)
	}

	if outcome.Unit.Status != inspection.StatusActive {
		t.Fatalf("status: got %s want active", outcome.Unit.Status)
	}
	wantDue := inspectedAt.AddDate(3, 0, 0)
	if !outcome.Unit.NextDue.Equal(wantDue) {
		t.Fatalf("next due: got %s want %s", outcome.Unit.NextDue, wantDue)
	}

	if got := stockQuantity(ctx, t, db, "CO2 cartridge 100g", "cylinder"); got != 4 {
		t.Fatalf("cartridge quantity: got %d want 4", got)
	}
	if got := stockQuantity(ctx, t, db, "Repair patch kit", "raft"); got != 2 {
		t.Fatalf("patch kit quantity: got %d want 2", got)
	}

	var movements int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stock_movements WHERE reason = $1",
		"inspection "+outcome.Record.ID).Scan(&movements)
	if err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movements != 2 {
		t.Fatalf("movements: got %d want 2", movements)
	}
}

func TestRecordInspectionShortfallRollsBack_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cleanup(ctx, t, db)

	seedStock(ctx, t, db, "CO2 cartridge 100g", "cylinder", 1)
	unitID := seedUnit(ctx, t, db, "IT-RAFT-002", "RFD",
		time.Date(2020, time.July, 1, 0, 0, 0, 0, time.UTC))

	orch := buildOrchestrator(t, db)

	_, err := orch.RecordInspection(ctx, inspapp.RecordInspectionRequest{
		UnitID:     unitID,
		Date:       time.Date(2026, time.February, 3, 9, 0, 0, 0, time.UTC),
		Result:     inspection.ResultApproved,
		Technician: "it-tech",
		Consumed: []inspection.ConsumptionLine{
			{Name: "CO2 cartridge 100g", Category: "cylinder", Quantity: 5},
		},
	})
	var shortfall *stock.InsufficientStockError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var records int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inspection_records WHERE unit_id = $1", unitID).Scan(&records); err != nil {
		t.Fatalf("count records: %v", err)
	}
	if records != 0 {
		t.Fatalf("records after aborted inspection: got %d want 0", records)
	}
	if got := stockQuantity(ctx, t, db, "CO2 cartridge 100g", "cylinder"); got != 1 {
		t.Fatalf("quantity after aborted inspection: got %d want 1", got)
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{"units", "inspection_records", "stock_items", "stock_movements"} {
		var exists bool
		err := db.QueryRow(
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)",
			table).Scan(&exists)
		if err != nil || !exists {
			t.Skip("missing tables; run migrations")
		}
	}
	return db
}

func cleanup(ctx context.Context, t *testing.T, db *sql.DB) {
	t.Helper()
	_, _ = db.ExecContext(ctx, "DELETE FROM inspection_records WHERE technician = 'it-tech'")
	_, _ = db.ExecContext(ctx, "DELETE FROM units WHERE serial LIKE 'IT-RAFT-%'")
	_, _ = db.ExecContext(ctx, "DELETE FROM stock_movements WHERE responsible = 'it-tech'")
	_, _ = db.ExecContext(ctx, "DELETE FROM stock_items WHERE name IN ('CO2 cartridge 100g', 'Repair patch kit')")
}

func buildOrchestrator(t *testing.T, db *sql.DB) *inspapp.Orchestrator {
	t.Helper()
	logger := log.New(os.Stdout, "[it] ", log.LstdFlags)

	coordinator, err := stockapp.NewCoordinator(stockpg.NewStockRepository(db), logger)
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	txRunner, err := insppg.NewTxRunner(db)
	if err != nil {
		t.Fatalf("tx runner: %v", err)
	}
	units, err := insppg.NewUnitRepository(db)
	if err != nil {
		t.Fatalf("unit repo: %v", err)
	}
	cylinders, err := insppg.NewCylinderRepository(db)
	if err != nil {
		t.Fatalf("cylinder repo: %v", err)
	}
	records, err := insppg.NewRecordRepository(db)
	if err != nil {
		t.Fatalf("record repo: %v", err)
	}
	orch, err := inspapp.NewOrchestrator(txRunner, units, cylinders, records, coordinator,
		compliance.DefaultCatalog(), logger)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	return orch
}

func seedStock(ctx context.Context, t *testing.T, db *sql.DB, name, category string, quantity int) {
	t.Helper()
	_, err := db.ExecContext(ctx, `
INSERT INTO stock_items (name, category, quantity, minimum, unit_cost, updated_at)
VALUES ($1, $2, $3, 1, 0, NOW())`, name, category, quantity)
	if err != nil {
		t.Fatalf("seed stock %s: %v", name, err)
	}
}

func seedUnit(ctx context.Context, t *testing.T, db *sql.DB, serial, brand string, manufactured time.Time) string {
	t.Helper()
	id := inspection.NewUnitID()
	_, err := db.ExecContext(ctx, `
INSERT INTO units (id, serial, brand, model, vessel_id, manufacture_date, status, last_inspection, next_due, created_at, updated_at)
VALUES ($1, $2, $3, '', NULL, $4, 'active', NULL, NULL, NOW(), NOW())`,
		id, serial, brand, manufactured)
	if err != nil {
		t.Fatalf("seed unit %s: %v", serial, err)
	}
	return id
}

func stockQuantity(ctx context.Context, t *testing.T, db *sql.DB, name, category string) int {
	t.Helper()
	var quantity int
	err := db.QueryRowContext(ctx,
		"SELECT quantity FROM stock_items WHERE name = $1 AND category = $2",
		name, category).Scan(&quantity)
	if err != nil {
		t.Fatalf("read quantity %s: %v", name, err)
	}
	return quantity
}
