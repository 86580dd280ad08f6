package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
)

// ErrNotCertifiable is returned when a certificate is requested for a
// rejected inspection.
var ErrNotCertifiable = errors.New("certificate: rejected inspections are not certifiable")

// BuildCertificatePDF renders an inspection certificate. Read-only over the
// record; rejected results are refused.
func BuildCertificatePDF(record *inspection.InspectionRecord, unit *inspection.Unit) ([]byte, error) {
	if record == nil {
		return nil, errors.New("certificate: nil record")
	}
	if record.Result == inspection.ResultRejected {
		return nil, ErrNotCertifiable
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Safety Equipment Inspection Certificate")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Certificate: %s", record.ID))
	pdf.Ln(5)
	if unit != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Unit Serial: %s", unit.Serial))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Brand / Model: %s %s", unit.Brand, unit.Model))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Manufactured: %s", unit.ManufactureDate.Format("2006-01-02")))
		pdf.Ln(5)
		if !unit.NextDue.IsZero() {
			pdf.Cell(0, 6, fmt.Sprintf("Next Inspection Due: %s", unit.NextDue.Format("2006-01-02")))
			pdf.Ln(5)
		}
	}
	pdf.Cell(0, 6, fmt.Sprintf("Inspection Date: %s", record.Date.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Result: %s", record.Result))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Technician: %s", record.Technician))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	if len(record.TestsPerformed) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Tests Performed")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		for _, test := range record.TestsPerformed {
			pdf.Cell(0, 6, "- "+test)
			pdf.Ln(5)
		}
		pdf.Ln(3)
	}

	if len(record.Consumed) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(90, 6, "Component Replaced", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "Category", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Qty", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, line := range record.Consumed {
			pdf.CellFormat(90, 6, line.Name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, line.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildCertificateXLSX renders the certificate as a workbook.
func BuildCertificateXLSX(record *inspection.InspectionRecord, unit *inspection.Unit) ([]byte, error) {
	if record == nil {
		return nil, errors.New("certificate: nil record")
	}
	if record.Result == inspection.ResultRejected {
		return nil, ErrNotCertifiable
	}

	f := excelize.NewFile()
	summarySheet := "certificate"
	componentsSheet := "components"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(componentsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Safety Equipment Inspection Certificate")
	_ = f.SetCellValue(summarySheet, "A3", "Certificate")
	_ = f.SetCellValue(summarySheet, "B3", record.ID)
	if unit != nil {
		_ = f.SetCellValue(summarySheet, "A4", "Unit Serial")
		_ = f.SetCellValue(summarySheet, "B4", unit.Serial)
		_ = f.SetCellValue(summarySheet, "A5", "Brand")
		_ = f.SetCellValue(summarySheet, "B5", unit.Brand)
		_ = f.SetCellValue(summarySheet, "A6", "Model")
		_ = f.SetCellValue(summarySheet, "B6", unit.Model)
		_ = f.SetCellValue(summarySheet, "A7", "Manufactured")
		_ = f.SetCellValue(summarySheet, "B7", unit.ManufactureDate.Format("2006-01-02"))
		if !unit.NextDue.IsZero() {
			_ = f.SetCellValue(summarySheet, "A8", "Next Due")
			_ = f.SetCellValue(summarySheet, "B8", unit.NextDue.Format("2006-01-02"))
		}
	}
	_ = f.SetCellValue(summarySheet, "A9", "Inspection Date")
	_ = f.SetCellValue(summarySheet, "B9", record.Date.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A10", "Result")
	_ = f.SetCellValue(summarySheet, "B10", record.Result)
	_ = f.SetCellValue(summarySheet, "A11", "Technician")
	_ = f.SetCellValue(summarySheet, "B11", record.Technician)
	for i, test := range record.TestsPerformed {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", 13+i), "Test")
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", 13+i), test)
	}

	_ = f.SetCellValue(componentsSheet, "A1", "Component")
	_ = f.SetCellValue(componentsSheet, "B1", "Category")
	_ = f.SetCellValue(componentsSheet, "C1", "Quantity")
	for i, line := range record.Consumed {
		row := i + 2
		_ = f.SetCellValue(componentsSheet, fmt.Sprintf("A%d", row), line.Name)
		_ = f.SetCellValue(componentsSheet, fmt.Sprintf("B%d", row), line.Category)
		_ = f.SetCellValue(componentsSheet, fmt.Sprintf("C%d", row), line.Quantity)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
