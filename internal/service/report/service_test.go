package report_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	domain "github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock/internal/repository"
	"github.com/cmlabs-hris/timeclock/internal/repository/sqlite"
	"github.com/cmlabs-hris/timeclock/internal/service/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T) (*repository.Store, *report.ReportServiceImpl) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	b, err := store.Branches.Create(ctx, branch.Branch{Name: "Centro", Latitude: ptr(19.43), Longitude: ptr(-99.13), RadiusMeters: 100})
	require.NoError(t, err)
	ana, err := store.Employees.Create(ctx, employee.Employee{Name: "Ana", BranchID: &b.ID})
	require.NoError(t, err)
	beto, err := store.Employees.Create(ctx, employee.Employee{Name: "Beto"})
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []shift.ShiftEvent{
		{
			EmployeeID: ana.ID, BranchID: &b.ID,
			ClockIn: start, ClockOut: ptr(start.Add(6 * time.Hour)),
			InCoords:  &geo.Coord{Lat: 19.50, Lng: -99.13},
			OutCoords: &geo.Coord{Lat: 19.43, Lng: -99.13},
		},
		{
			EmployeeID: beto.ID,
			ClockIn:    start, ClockOut: ptr(start.Add(9 * time.Hour)),
		},
		{
			EmployeeID: beto.ID,
			ClockIn:    start.Add(24 * time.Hour),
		},
	}
	for _, ev := range events {
		_, err := store.Shifts.Create(ctx, ev)
		require.NoError(t, err)
	}

	svc, err := report.NewReportService(store.Branches, store.Employees, store.Shifts, nil)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return store, svc
}

func TestSummary(t *testing.T) {
	_, svc := seed(t)

	summary, err := svc.Summary(context.Background(), domain.SummaryRequest{})
	require.NoError(t, err)

	assert.Equal(t, float64(domain.DefaultShortShiftHours), summary.ThresholdHours)
	assert.Equal(t, 1, summary.OpenShifts)

	require.Len(t, summary.Hours, 2)
	assert.Equal(t, "Ana", summary.Hours[0].EmployeeName)
	assert.Equal(t, "Centro", summary.Hours[0].BranchName)
	assert.InDelta(t, 6.0, summary.Hours[0].Hours, 1e-9)
	assert.Equal(t, "Beto", summary.Hours[1].EmployeeName)
	assert.Equal(t, employee.NoBranchLabel, summary.Hours[1].BranchName)
	assert.InDelta(t, 9.0, summary.Hours[1].Hours, 1e-9)

	require.Len(t, summary.ShortShifts, 1)
	assert.Equal(t, "Ana", summary.ShortShifts[0].EmployeeName)
	assert.InDelta(t, 6.0, summary.ShortShifts[0].Hours, 1e-9)

	require.Len(t, summary.OutOfBounds, 1)
	assert.Equal(t, domain.FlagEntry, summary.OutOfBounds[0].Flag)
	assert.Equal(t, "Centro", summary.OutOfBounds[0].BranchName)
	assert.InDelta(t, 7783.7, summary.OutOfBounds[0].DistanceMeters, 5)
}

func TestSummary_FiltersAndThreshold(t *testing.T) {
	store, svc := seed(t)
	ctx := context.Background()

	all, err := store.Employees.List(ctx)
	require.NoError(t, err)
	beto := all[1].ID

	summary, err := svc.Summary(ctx, domain.SummaryRequest{EmployeeID: &beto, ThresholdHours: 10})
	require.NoError(t, err)

	assert.Equal(t, 10.0, summary.ThresholdHours)
	require.Len(t, summary.Hours, 1)
	assert.Equal(t, beto, summary.Hours[0].EmployeeID)
	require.Len(t, summary.ShortShifts, 1)
	assert.InDelta(t, 9.0, summary.ShortShifts[0].Hours, 1e-9)
	assert.Empty(t, summary.OutOfBounds)
}

func TestSummary_RepeatedCallsAgree(t *testing.T) {
	_, svc := seed(t)
	ctx := context.Background()

	first, err := svc.Summary(ctx, domain.SummaryRequest{})
	require.NoError(t, err)
	second, err := svc.Summary(ctx, domain.SummaryRequest{})
	require.NoError(t, err)

	assert.Equal(t, first.Hours, second.Hours)
	assert.Equal(t, first.ShortShifts, second.ShortShifts)
	assert.Equal(t, first.OutOfBounds, second.OutOfBounds)
	assert.False(t, second.GeneratedAt.Before(first.GeneratedAt))
}

func TestSummary_SeesNewShifts(t *testing.T) {
	store, svc := seed(t)
	ctx := context.Background()

	before, err := svc.Summary(ctx, domain.SummaryRequest{})
	require.NoError(t, err)

	all, err := store.Employees.List(ctx)
	require.NoError(t, err)
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	_, err = store.Shifts.Create(ctx, shift.ShiftEvent{EmployeeID: all[0].ID, ClockIn: start, ClockOut: ptr(start.Add(time.Hour))})
	require.NoError(t, err)

	after, err := svc.Summary(ctx, domain.SummaryRequest{})
	require.NoError(t, err)

	assert.Len(t, after.ShortShifts, len(before.ShortShifts)+1)
	assert.InDelta(t, before.Hours[0].Hours+1, after.Hours[0].Hours, 1e-9)
}

func TestSummary_InvalidRequest(t *testing.T) {
	_, svc := seed(t)

	_, err := svc.Summary(context.Background(), domain.SummaryRequest{ThresholdHours: -1})
	var verr validator.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.ToMap(), "threshold_hours")
}

func TestExportXLSX(t *testing.T) {
	_, svc := seed(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), domain.SummaryRequest{}, &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.SheetHours, report.SheetShortShifts, report.SheetOutOfBounds}, f.GetSheetList())

	hours, err := f.GetRows(report.SheetHours)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(hours), 3)
	assert.Equal(t, []string{"Employee ID", "Employee", "Branch", "Hours"}, hours[0])
	assert.Equal(t, "Ana", hours[1][1])
	assert.Equal(t, "Centro", hours[1][2])
	assert.Equal(t, "6", hours[1][3])
	assert.Equal(t, "Beto", hours[2][1])

	bounds, err := f.GetRows(report.SheetOutOfBounds)
	require.NoError(t, err)
	require.Len(t, bounds, 2)
	assert.Equal(t, "Entrada", bounds[1][3])
}
