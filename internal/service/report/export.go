package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	SheetHours       = "Hours"
	SheetShortShifts = "ShortShifts"
	SheetOutOfBounds = "OutOfBounds"
)

// ExportXLSX implements report.ReportService.
func (s *ReportServiceImpl) ExportXLSX(ctx context.Context, req report.SummaryRequest, w io.Writer) error {
	summary, err := s.Summary(ctx, req)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSummary(f, summary); err != nil {
		return fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, summary report.Summary) error {
	if err := f.SetSheetName(f.GetSheetName(0), SheetHours); err != nil {
		return err
	}
	for _, name := range []string{SheetShortShifts, SheetOutOfBounds} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	hours := [][]interface{}{{"Employee ID", "Employee", "Branch", "Hours"}}
	for _, r := range summary.Hours {
		hours = append(hours, []interface{}{r.EmployeeID, r.EmployeeName, r.BranchName, round2(r.Hours)})
	}
	hours = append(hours, []interface{}{}, []interface{}{"Open shifts", summary.OpenShifts})

	short := [][]interface{}{{"Shift ID", "Employee", "Clock in", "Clock out", "Hours"}}
	for _, r := range summary.ShortShifts {
		short = append(short, []interface{}{
			r.ShiftID, r.EmployeeName, r.ClockIn.Format(time.RFC3339), r.ClockOut.Format(time.RFC3339), round2(r.Hours),
		})
	}

	bounds := [][]interface{}{{"Shift ID", "Employee", "Branch", "Flag", "At", "Distance (m)", "Radius (m)"}}
	for _, r := range summary.OutOfBounds {
		bounds = append(bounds, []interface{}{
			r.ShiftID, r.EmployeeName, r.BranchName, string(r.Flag), r.At.Format(time.RFC3339),
			round2(r.DistanceMeters), r.RadiusMeters,
		})
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetHours:       hours,
		SheetShortShifts: short,
		SheetOutOfBounds: bounds,
	} {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
