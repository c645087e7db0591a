package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock/internal/repository"
)

type LedgerServiceImpl struct {
	tx        repository.Transactor
	employees employee.EmployeeRepository
	shifts    shift.ShiftRepository
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*LedgerServiceImpl)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerServiceImpl) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *LedgerServiceImpl) { s.logger = l }
}

func NewLedgerService(
	tx repository.Transactor,
	employees employee.EmployeeRepository,
	shifts shift.ShiftRepository,
	opts ...Option,
) *LedgerServiceImpl {
	s := &LedgerServiceImpl{
		tx:        tx,
		employees: employees,
		shifts:    shifts,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is the ledger's notion of now: UTC, millisecond precision.
func (s *LedgerServiceImpl) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// ClockIn implements shift.LedgerService.
func (s *LedgerServiceImpl) ClockIn(ctx context.Context, req shift.ClockInRequest) (shift.ShiftEvent, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftEvent{}, err
	}

	var created shift.ShiftEvent
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, req.EmployeeID)
		if err != nil {
			return err
		}

		_, err = s.shifts.GetOpenSession(ctx, req.EmployeeID)
		switch {
		case err == nil:
			return shift.ErrOpenShiftExists
		case !errors.Is(err, shift.ErrNoOpenShift):
			return fmt.Errorf("failed to get open session: %w", err)
		}

		branchID := req.BranchID
		if branchID == nil {
			branchID = emp.BranchID
		}

		created, err = s.shifts.Create(ctx, shift.ShiftEvent{
			EmployeeID: req.EmployeeID,
			BranchID:   branchID,
			ClockIn:    s.timestamp(),
			InCoords:   req.Coords(),
		})
		return err
	})
	if err != nil {
		return shift.ShiftEvent{}, err
	}

	s.logger.Info("clocked in", "employee_id", created.EmployeeID, "shift_id", created.ID)
	return created, nil
}

// ClockOut implements shift.LedgerService.
func (s *LedgerServiceImpl) ClockOut(ctx context.Context, req shift.ClockOutRequest) (shift.ShiftEvent, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftEvent{}, err
	}

	var closed shift.ShiftEvent
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := s.shifts.GetOpenSession(ctx, req.EmployeeID)
		if err != nil {
			return err
		}

		out := s.timestamp()
		open.ClockOut = &out
		open.OutCoords = req.Coords()

		if err := s.shifts.Update(ctx, open); err != nil {
			return fmt.Errorf("failed to close shift: %w", err)
		}
		closed = open
		return nil
	})
	if err != nil {
		return shift.ShiftEvent{}, err
	}

	s.logger.Info("clocked out", "employee_id", closed.EmployeeID, "shift_id", closed.ID)
	return closed, nil
}

// CurrentStatus implements shift.LedgerService.
func (s *LedgerServiceImpl) CurrentStatus(ctx context.Context, employeeID int64) (shift.Status, error) {
	_, err := s.shifts.GetOpenSession(ctx, employeeID)
	switch {
	case err == nil:
		return shift.StatusIn, nil
	case errors.Is(err, shift.ErrNoOpenShift):
		return shift.StatusOut, nil
	default:
		return "", fmt.Errorf("failed to get open session: %w", err)
	}
}

// List implements shift.LedgerService.
func (s *LedgerServiceImpl) List(ctx context.Context, filter shift.ShiftFilter) ([]shift.ShiftEvent, error) {
	return s.shifts.List(ctx, filter)
}

// PurgeOlderThan implements shift.LedgerService.
func (s *LedgerServiceImpl) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		var errs validator.ValidationErrors
		errs.Add("days", "days must be at least 1")
		return 0, errs
	}

	cutoff := s.timestamp().AddDate(0, 0, -days)
	n, err := s.shifts.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.logger.Info("purged old shifts", "days", days, "deleted", n)
	return n, nil
}
