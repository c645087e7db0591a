package shift

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

// Status is the clock state derived from the event log.
type Status string

const (
	// StatusIn means the employee has an open shift.
	StatusIn Status = "IN"
	// StatusOut means the employee has no open shift.
	StatusOut Status = "OUT"
)

// NextAction returns the action a clock button should offer for s.
func (s Status) NextAction() string {
	if s == StatusIn {
		return "clock-out"
	}
	return "clock-in"
}

// ShiftEvent is one clock-in/clock-out pair, or an in-progress clock-in.
type ShiftEvent struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employeeId"`
	BranchID   *int64     `json:"branchId,omitempty"`
	ClockIn    time.Time  `json:"clockIn"`
	ClockOut   *time.Time `json:"clockOut"`
	InCoords   *geo.Coord `json:"inCoords,omitempty"`
	OutCoords  *geo.Coord `json:"outCoords,omitempty"`
}

// IsOpen reports whether the shift has no clock-out yet.
func (e ShiftEvent) IsOpen() bool {
	return e.ClockOut == nil
}

// Duration returns the worked duration of a completed shift.
func (e ShiftEvent) Duration() (time.Duration, bool) {
	if e.ClockOut == nil {
		return 0, false
	}
	return e.ClockOut.Sub(e.ClockIn), true
}

// ShiftFilter narrows List results. Zero values mean no filter.
type ShiftFilter struct {
	EmployeeID *int64
	OpenOnly   bool
	Since      *time.Time
	Limit      int
}
