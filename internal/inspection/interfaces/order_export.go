package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	inspection "seismic-network/internal/inspection/domain"
	seismograph "seismic-network/internal/seismograph/domain"
)

// BuildClosureReportPDF renders a minimal PDF for a closed inspection order.
// The device may be nil when the station has no seismograph on record.
func BuildClosureReportPDF(order *inspection.Order, device *seismograph.Seismograph) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Inspection Order Closure Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Order: %d", order.Number))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Station: %s", order.StationCode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", order.Status.Display()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Responsible: %s %s", order.Responsible.Name, order.Responsible.Surname))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Emitted: %s", order.EmittedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if !order.CompletedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Completed: %s", order.CompletedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	if !order.ClosedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Closed: %s", order.ClosedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	if order.ClosureObservation != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Observation: %s", order.ClosureObservation))
		pdf.Ln(5)
	}

	if device != nil {
		pdf.Ln(4)
		pdf.Cell(0, 6, fmt.Sprintf("Seismograph: %s", device.ID))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Device status: %s", device.Status.Display()))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, "Status", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Start", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "End", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Reasons", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, entry := range device.History {
			end := ""
			if !entry.EndAt.IsZero() {
				end = entry.EndAt.Format(time.RFC3339)
			}
			pdf.CellFormat(45, 6, entry.Status.Display(), "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, entry.StartAt.Format(time.RFC3339), "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, end, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, reasonSummary(entry), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildClosureReportXLSX renders a minimal XLSX for a closed inspection
// order.
func BuildClosureReportXLSX(order *inspection.Order, device *seismograph.Seismograph) ([]byte, error) {
	f := excelize.NewFile()
	orderSheet := "order"
	historySheet := "device_history"
	f.SetSheetName("Sheet1", orderSheet)
	f.NewSheet(historySheet)

	_ = f.SetCellValue(orderSheet, "A1", "Inspection Order Closure Report")
	_ = f.SetCellValue(orderSheet, "A3", "Order")
	_ = f.SetCellValue(orderSheet, "B3", order.Number)
	_ = f.SetCellValue(orderSheet, "A4", "Station")
	_ = f.SetCellValue(orderSheet, "B4", order.StationCode)
	_ = f.SetCellValue(orderSheet, "A5", "Status")
	_ = f.SetCellValue(orderSheet, "B5", order.Status.Display())
	_ = f.SetCellValue(orderSheet, "A6", "Responsible")
	_ = f.SetCellValue(orderSheet, "B6", order.Responsible.Name+" "+order.Responsible.Surname)
	_ = f.SetCellValue(orderSheet, "A7", "Emitted")
	_ = f.SetCellValue(orderSheet, "B7", order.EmittedAt.Format(time.RFC3339))
	if !order.CompletedAt.IsZero() {
		_ = f.SetCellValue(orderSheet, "A8", "Completed")
		_ = f.SetCellValue(orderSheet, "B8", order.CompletedAt.Format(time.RFC3339))
	}
	if !order.ClosedAt.IsZero() {
		_ = f.SetCellValue(orderSheet, "A9", "Closed")
		_ = f.SetCellValue(orderSheet, "B9", order.ClosedAt.Format(time.RFC3339))
	}
	_ = f.SetCellValue(orderSheet, "A10", "Observation")
	_ = f.SetCellValue(orderSheet, "B10", order.ClosureObservation)
	if device != nil {
		_ = f.SetCellValue(orderSheet, "A11", "Seismograph")
		_ = f.SetCellValue(orderSheet, "B11", device.ID)
		_ = f.SetCellValue(orderSheet, "A12", "Device status")
		_ = f.SetCellValue(orderSheet, "B12", device.Status.Display())
	}

	_ = f.SetCellValue(historySheet, "A1", "Status")
	_ = f.SetCellValue(historySheet, "B1", "Start")
	_ = f.SetCellValue(historySheet, "C1", "End")
	_ = f.SetCellValue(historySheet, "D1", "Reasons")
	_ = f.SetCellValue(historySheet, "E1", "Comment")
	if device != nil {
		for i, entry := range device.History {
			row := i + 2
			end := ""
			if !entry.EndAt.IsZero() {
				end = entry.EndAt.Format(time.RFC3339)
			}
			_ = f.SetCellValue(historySheet, fmt.Sprintf("A%d", row), entry.Status.Display())
			_ = f.SetCellValue(historySheet, fmt.Sprintf("B%d", row), entry.StartAt.Format(time.RFC3339))
			_ = f.SetCellValue(historySheet, fmt.Sprintf("C%d", row), end)
			_ = f.SetCellValue(historySheet, fmt.Sprintf("D%d", row), reasonSummary(entry))
			_ = f.SetCellValue(historySheet, fmt.Sprintf("E%d", row), entry.Comment)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reasonSummary(entry seismograph.StateChange) string {
	var buf bytes.Buffer
	for i, reason := range entry.Reasons {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(reason.Type.Description)
		if reason.Comment != "" {
			buf.WriteString(": ")
			buf.WriteString(reason.Comment)
		}
	}
	return buf.String()
}
