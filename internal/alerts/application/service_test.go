package application

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	alerts "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/domain"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubDueReader struct {
	units     []UnitDue
	cylinders []CylinderDue
}

func (s stubDueReader) ListUnitsDue(context.Context) ([]UnitDue, error)         { return s.units, nil }
func (s stubDueReader) ListCylindersDue(context.Context) ([]CylinderDue, error) { return s.cylinders, nil }

type stubStockReader struct {
	items []stock.StockItem
}

func (s stubStockReader) ListItems(context.Context) ([]stock.StockItem, error) { return s.items, nil }

func newTestService(t *testing.T, due stubDueReader, stockReader stubStockReader, now time.Time) *Service {
	t.Helper()
	logger := log.New(os.Stderr, "[alerts-test] ", log.LstdFlags)
	service, err := NewService(due, stockReader, logger, WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestScanClassifiesAndRanks(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := stubDueReader{
		units: []UnitDue{
			{ID: "unit-a", Serial: "RFT-001", NextDue: now.AddDate(0, 0, 45)}, // attention
			{ID: "unit-b", Serial: "RFT-002", NextDue: now.AddDate(0, 0, -3)}, // expired, critical
		},
		cylinders: []CylinderDue{
			{ID: "cyl-a", Serial: "CYL-001", NextTest: now.AddDate(0, 0, 20)}, // urgent
		},
	}
	service := newTestService(t, due, stubStockReader{}, now)

	feed, err := service.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(feed))
	}
	wantOrder := []string{"unit-b", "cyl-a", "unit-a"}
	for i, want := range wantOrder {
		if feed[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, feed[i].ID)
		}
	}
	if feed[0].Tier != alerts.TierCritical || !feed[0].Expired {
		t.Fatalf("overdue unit should be critical and expired, got %+v", feed[0])
	}
	if feed[1].Tier != alerts.TierUrgent {
		t.Fatalf("cylinder at 20 days should be urgent, got %s", feed[1].Tier)
	}
	if feed[2].Tier != alerts.TierAttention {
		t.Fatalf("unit at 45 days should be attention, got %s", feed[2].Tier)
	}
}

func TestScanLowStockTiers(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	stockReader := stubStockReader{items: []stock.StockItem{
		{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 0, Minimum: 4},
		{Name: "Fachos de Mão", Category: "Inspeção", Quantity: 2, Minimum: 6},
		{Name: "Sinais Fumígenos", Category: "Inspeção", Quantity: 9, Minimum: 2},
	}}
	service := newTestService(t, stubDueReader{}, stockReader, now)

	feed, err := service.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 low-stock alerts, got %d: %+v", len(feed), feed)
	}
	if feed[0].Tier != alerts.TierCritical {
		t.Fatalf("out-of-stock item should be critical, got %s", feed[0].Tier)
	}
	if feed[1].Tier != alerts.TierUrgent {
		t.Fatalf("below-minimum item should be urgent, got %s", feed[1].Tier)
	}
}

func TestScanExpiringBatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	stockReader := stubStockReader{items: []stock.StockItem{
		{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 10, Minimum: 2, Expiry: now.AddDate(0, 0, 15)},
		{Name: "Fachos de Mão", Category: "Inspeção", Quantity: 10, Minimum: 2, Expiry: now.AddDate(0, 0, 200)},
	}}
	service := newTestService(t, stubDueReader{}, stockReader, now)

	feed, err := service.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("expected 1 expiry alert, got %d: %+v", len(feed), feed)
	}
	if feed[0].Tier != alerts.TierCritical {
		t.Fatalf("batch expiring in 15 days should be critical, got %s", feed[0].Tier)
	}
	if feed[0].Category != alerts.CategoryComponent {
		t.Fatalf("expected component category, got %s", feed[0].Category)
	}
}

func TestScanEmptyFleetYieldsEmptyFeed(t *testing.T) {
	service := newTestService(t, stubDueReader{}, stubStockReader{}, time.Now().UTC())
	feed, err := service.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %d items", len(feed))
	}
}
