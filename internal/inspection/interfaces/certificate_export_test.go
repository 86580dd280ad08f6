package interfaces

import (
	"bytes"
	"errors"
	"testing"
	"time"

	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
)

func sampleRecord(result string) *inspection.InspectionRecord {
	return &inspection.InspectionRecord{
		ID:             "insp-1",
		UnitID:         "unit-1",
		Date:           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Result:         result,
		Technician:     "J. Medeiros",
		TestsPerformed: []string{"Visual Inspection", "Pressure Test"},
		Consumed: []inspection.ConsumptionLine{
			{Name: "Foguetes com Paraquedas", Category: "Inspeção", Quantity: 4},
		},
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func sampleUnit() *inspection.Unit {
	return &inspection.Unit{
		ID:              "unit-1",
		Serial:          "RFT-100",
		Brand:           "PLASTIMO",
		Model:           "Coastal 8",
		ManufactureDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:          inspection.StatusActive,
		NextDue:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildCertificatePDF(t *testing.T) {
	data, err := BuildCertificatePDF(sampleRecord(inspection.ResultApproved), sampleUnit())
	if err != nil {
		t.Fatalf("BuildCertificatePDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestBuildCertificateXLSX(t *testing.T) {
	data, err := BuildCertificateXLSX(sampleRecord(inspection.ResultApprovedConditions), sampleUnit())
	if err != nil {
		t.Fatalf("BuildCertificateXLSX: %v", err)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("output is not an xlsx archive")
	}
}

func TestBuildCertificateRejectedRefused(t *testing.T) {
	if _, err := BuildCertificatePDF(sampleRecord(inspection.ResultRejected), sampleUnit()); !errors.Is(err, ErrNotCertifiable) {
		t.Fatalf("expected ErrNotCertifiable, got %v", err)
	}
	if _, err := BuildCertificateXLSX(sampleRecord(inspection.ResultRejected), sampleUnit()); !errors.Is(err, ErrNotCertifiable) {
		t.Fatalf("expected ErrNotCertifiable, got %v", err)
	}
}
