package report

import (
	"context"
	"io"
)

// ReportService derives read-only views from the shift log.
type ReportService interface {
	// Summary aggregates hours, short shifts, geofence flags and open shifts.
	Summary(ctx context.Context, req SummaryRequest) (Summary, error)

	// ExportXLSX writes the summary as a workbook to w.
	ExportXLSX(ctx context.Context, req SummaryRequest, w io.Writer) error
}
