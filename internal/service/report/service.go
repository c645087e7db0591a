package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/dgraph-io/ristretto"
)

type ReportServiceImpl struct {
	branches  branch.BranchRepository
	employees employee.EmployeeRepository
	shifts    shift.ShiftRepository
	cache     *ristretto.Cache
	now       func() time.Time
	logger    *slog.Logger
}

func NewReportService(
	branches branch.BranchRepository,
	employees employee.EmployeeRepository,
	shifts shift.ShiftRepository,
	logger *slog.Logger,
) (*ReportServiceImpl, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     64,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportServiceImpl{
		branches:  branches,
		employees: employees,
		shifts:    shifts,
		cache:     cache,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Close releases the cache goroutines.
func (s *ReportServiceImpl) Close() {
	s.cache.Close()
}

type summaryInput struct {
	Threshold  float64             `json:"threshold"`
	EmployeeID *int64              `json:"employeeId"`
	Since      *time.Time          `json:"since"`
	Events     []shift.ShiftEvent  `json:"events"`
	Employees  []employee.Employee `json:"employees"`
	Branches   []branch.Branch     `json:"branches"`
}

// fingerprint identifies the exact inputs of a summary. Equal inputs always
// aggregate to equal results, so it is safe as a cache key.
func (in summaryInput) fingerprint() (string, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Summary implements report.ReportService.
func (s *ReportServiceImpl) Summary(ctx context.Context, req report.SummaryRequest) (report.Summary, error) {
	if err := req.Validate(); err != nil {
		return report.Summary{}, err
	}

	in, err := s.load(ctx, req)
	if err != nil {
		return report.Summary{}, err
	}

	key, err := in.fingerprint()
	if err != nil {
		return report.Summary{}, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}

	if cached, ok := s.cache.Get(key); ok {
		summary := cached.(report.Summary)
		summary.GeneratedAt = s.now().UTC()
		s.logger.Debug("report summary served from cache", "key", key[:12])
		return summary, nil
	}

	summary := build(in)
	s.cache.Set(key, summary, 1)

	summary.GeneratedAt = s.now().UTC()
	return summary, nil
}

func (s *ReportServiceImpl) load(ctx context.Context, req report.SummaryRequest) (summaryInput, error) {
	events, err := s.shifts.List(ctx, shift.ShiftFilter{EmployeeID: req.EmployeeID, Since: req.Since})
	if err != nil {
		return summaryInput{}, fmt.Errorf("failed to load shifts: %w", err)
	}
	employees, err := s.employees.List(ctx)
	if err != nil {
		return summaryInput{}, fmt.Errorf("failed to load employees: %w", err)
	}
	branches, err := s.branches.List(ctx)
	if err != nil {
		return summaryInput{}, fmt.Errorf("failed to load branches: %w", err)
	}

	return summaryInput{
		Threshold:  req.Threshold(),
		EmployeeID: req.EmployeeID,
		Since:      req.Since,
		Events:     events,
		Employees:  employees,
		Branches:   branches,
	}, nil
}

// build is a pure function of its input.
func build(in summaryInput) report.Summary {
	names := newDirectory(in.Employees, in.Branches)

	summary := report.Summary{
		ThresholdHours: in.Threshold,
		OpenShifts:     OpenShiftsCount(in.Events),
		Hours:          []report.EmployeeHoursRow{},
		ShortShifts:    []report.ShortShiftRow{},
		OutOfBounds:    []report.OutOfBoundsRow{},
	}

	for id, hours := range TotalHoursByEmployee(in.Events) {
		summary.Hours = append(summary.Hours, report.EmployeeHoursRow{
			EmployeeID:   id,
			EmployeeName: names.employee(id),
			BranchName:   names.employeeBranch(id),
			Hours:        hours,
		})
	}
	sort.Slice(summary.Hours, func(i, j int) bool {
		a, b := summary.Hours[i], summary.Hours[j]
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		return a.EmployeeID < b.EmployeeID
	})

	for _, ss := range ShortShifts(in.Events, in.Threshold) {
		summary.ShortShifts = append(summary.ShortShifts, report.ShortShiftRow{
			ShiftID:      ss.Event.ID,
			EmployeeID:   ss.Event.EmployeeID,
			EmployeeName: names.employee(ss.Event.EmployeeID),
			ClockIn:      ss.Event.ClockIn,
			ClockOut:     *ss.Event.ClockOut,
			Hours:        ss.Hours,
		})
	}

	for _, ob := range OutOfBoundsEvents(in.Events, in.Branches) {
		summary.OutOfBounds = append(summary.OutOfBounds, report.OutOfBoundsRow{
			ShiftID:        ob.Event.ID,
			EmployeeID:     ob.Event.EmployeeID,
			EmployeeName:   names.employee(ob.Event.EmployeeID),
			BranchName:     names.branch(&ob.BranchID),
			Flag:           ob.Flag,
			At:             ob.At,
			DistanceMeters: ob.DistanceMeters,
			RadiusMeters:   ob.RadiusMeters,
		})
	}

	return summary
}

type directory struct {
	employees map[int64]employee.Employee
	branches  map[int64]string
}

func newDirectory(employees []employee.Employee, branches []branch.Branch) directory {
	d := directory{
		employees: make(map[int64]employee.Employee, len(employees)),
		branches:  make(map[int64]string, len(branches)),
	}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	for _, b := range branches {
		d.branches[b.ID] = b.Name
	}
	return d
}

func (d directory) employee(id int64) string {
	if e, ok := d.employees[id]; ok {
		return e.Name
	}
	return fmt.Sprintf("#%d", id)
}

func (d directory) branch(id *int64) string {
	if id == nil {
		return employee.NoBranchLabel
	}
	if name, ok := d.branches[*id]; ok {
		return name
	}
	return employee.NoBranchLabel
}

func (d directory) employeeBranch(id int64) string {
	e, ok := d.employees[id]
	if !ok {
		return employee.NoBranchLabel
	}
	return d.branch(e.BranchID)
}
