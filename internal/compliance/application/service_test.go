package application

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubUnitReader struct {
	units map[string]UnitSnapshot
}

func (s stubUnitReader) Find(_ context.Context, id string) (*UnitSnapshot, error) {
	unit, ok := s.units[id]
	if !ok {
		return nil, ErrUnitNotFound
	}
	return &unit, nil
}

func newTestService(t *testing.T, units map[string]UnitSnapshot, now time.Time) *Service {
	t.Helper()
	logger := log.New(os.Stderr, "[compliance-test] ", log.LstdFlags)
	service, err := NewService(stubUnitReader{units: units}, compliance.DefaultCatalog(), logger, WithClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestEvaluateUnitElevenYearOld(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	service := newTestService(t, map[string]UnitSnapshot{
		"unit-1": {
			ID:              "unit-1",
			Serial:          "RFT-100",
			Brand:           "RFD",
			Status:          "active",
			ManufactureDate: time.Date(2014, 5, 15, 0, 0, 0, 0, time.UTC),
			LastInspection:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}, now)

	evaluation, err := service.EvaluateUnit(context.Background(), "unit-1")
	if err != nil {
		t.Fatalf("EvaluateUnit: %v", err)
	}
	if evaluation.AgeYears != 11 {
		t.Fatalf("expected age 11, got %d", evaluation.AgeYears)
	}
	if len(evaluation.RequiredTests) != 5 {
		t.Fatalf("an 11-year unit requires all five tests, got %d", len(evaluation.RequiredTests))
	}
	wantDue := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !evaluation.NextDue.Equal(wantDue) {
		t.Fatalf("expected next due %v, got %v", wantDue, evaluation.NextDue)
	}
	if !evaluation.BrandKnown {
		t.Fatalf("RFD falls back to the annual default but is not a gap")
	}
	if got := evaluation.EstimatedCost.String(); got != "1450" {
		t.Fatalf("expected estimated cost 1450, got %s", got)
	}
}

func TestEvaluateUnitUnknownID(t *testing.T) {
	service := newTestService(t, nil, time.Now().UTC())
	if _, err := service.EvaluateUnit(context.Background(), "unit-missing"); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("expected ErrUnitNotFound, got %v", err)
	}
}

func TestEvaluateUnitUnknownBrandFlagged(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	service := newTestService(t, map[string]UnitSnapshot{
		"unit-1": {
			ID:              "unit-1",
			Brand:           "ACME RAFTS",
			ManufactureDate: now.AddDate(-2, 0, 0),
		},
	}, now)

	evaluation, err := service.EvaluateUnit(context.Background(), "unit-1")
	if err != nil {
		t.Fatalf("EvaluateUnit: %v", err)
	}
	if evaluation.BrandKnown {
		t.Fatalf("unknown brand must be flagged")
	}
	wantDue := now.AddDate(1, 0, 0)
	if !evaluation.NextDue.Equal(wantDue) {
		t.Fatalf("unknown brand falls back to annual: expected %v, got %v", wantDue, evaluation.NextDue)
	}
}
