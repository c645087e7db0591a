package shift

import (
	"context"
	"time"
)

// ShiftRepository persists ShiftEvents. It does not enforce the one open
// shift per employee rule; the ledger does.
type ShiftRepository interface {
	Create(ctx context.Context, event ShiftEvent) (ShiftEvent, error)
	GetByID(ctx context.Context, id int64) (ShiftEvent, error)
	Update(ctx context.Context, event ShiftEvent) error
	List(ctx context.Context, filter ShiftFilter) ([]ShiftEvent, error)

	// GetOpenSession returns the most recent open event for the employee,
	// ordered by clock-in descending with the highest ID winning ties.
	// Returns ErrNoOpenShift when there is none.
	GetOpenSession(ctx context.Context, employeeID int64) (ShiftEvent, error)

	// DeleteOlderThan removes events whose clock-in is before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// ReplaceAll clears the collection and inserts events keeping their IDs.
	ReplaceAll(ctx context.Context, events []ShiftEvent) error
}
