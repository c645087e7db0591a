package attendance

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
)

// AttendanceService runs a full clock action: locate, record, push, track.
type AttendanceService interface {
	// ClockIn fills in the device location when the request has none.
	ClockIn(ctx context.Context, req shift.ClockInRequest) (Outcome, error)

	ClockOut(ctx context.Context, req shift.ClockOutRequest) (Outcome, error)

	CurrentStatus(ctx context.Context, employeeID int64) (shift.Status, error)

	// ResumeTracking restarts location tracking for every open shift.
	ResumeTracking(ctx context.Context) (int, error)

	// Subscribe streams clock events until ctx ends or cleanup is called.
	Subscribe(ctx context.Context) (<-chan ClockEvent, func())
}
