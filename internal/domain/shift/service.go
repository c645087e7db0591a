package shift

import "context"

// LedgerService turns clock requests into ShiftEvents.
type LedgerService interface {
	// ClockIn opens a shift. Fails with ErrOpenShiftExists if one is open.
	ClockIn(ctx context.Context, req ClockInRequest) (ShiftEvent, error)

	// ClockOut closes the most recent open shift. Fails with ErrNoOpenShift.
	ClockOut(ctx context.Context, req ClockOutRequest) (ShiftEvent, error)

	// CurrentStatus is IN when an open shift exists, OUT otherwise.
	CurrentStatus(ctx context.Context, employeeID int64) (Status, error)

	List(ctx context.Context, filter ShiftFilter) ([]ShiftEvent, error)

	// PurgeOlderThan deletes events that clocked in more than days ago.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}
