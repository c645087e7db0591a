package report

import (
	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/report"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

// TotalHoursByEmployee sums completed shift durations per employee. Open
// shifts are skipped.
func TotalHoursByEmployee(events []shift.ShiftEvent) map[int64]float64 {
	totals := make(map[int64]float64)
	for _, e := range events {
		d, ok := e.Duration()
		if !ok {
			continue
		}
		totals[e.EmployeeID] += d.Hours()
	}
	return totals
}

// ShortShifts returns completed shifts lasting less than thresholdHours.
// A non-positive threshold means report.DefaultShortShiftHours.
func ShortShifts(events []shift.ShiftEvent, thresholdHours float64) []report.ShortShift {
	if thresholdHours <= 0 {
		thresholdHours = report.DefaultShortShiftHours
	}

	var out []report.ShortShift
	for _, e := range events {
		d, ok := e.Duration()
		if !ok {
			continue
		}
		if h := d.Hours(); h < thresholdHours {
			out = append(out, report.ShortShift{Event: e, Hours: h})
		}
	}
	return out
}

// OutOfBoundsEvents flags clock-ins and clock-outs recorded outside their
// branch geofence. Events without a resolvable geofenced branch, and ends
// without a known position, are never flagged. The degraded {0,0} fix counts
// as unknown.
func OutOfBoundsEvents(events []shift.ShiftEvent, branches []branch.Branch) []report.OutOfBoundsEvent {
	byID := make(map[int64]branch.Branch, len(branches))
	for _, b := range branches {
		byID[b.ID] = b
	}

	var out []report.OutOfBoundsEvent
	for _, e := range events {
		if e.BranchID == nil {
			continue
		}
		b, ok := byID[*e.BranchID]
		if !ok {
			continue
		}
		center := b.Location()
		if center == nil {
			continue
		}
		radius := b.Radius()

		if known(e.InCoords) && geo.IsOutOfBounds(e.InCoords, center, radius) {
			out = append(out, report.OutOfBoundsEvent{
				Event:          e,
				BranchID:       b.ID,
				Flag:           report.FlagEntry,
				At:             e.ClockIn,
				DistanceMeters: geo.DistanceMeters(e.InCoords, center),
				RadiusMeters:   radius,
			})
		}
		if e.ClockOut != nil && known(e.OutCoords) && geo.IsOutOfBounds(e.OutCoords, center, radius) {
			out = append(out, report.OutOfBoundsEvent{
				Event:          e,
				BranchID:       b.ID,
				Flag:           report.FlagExit,
				At:             *e.ClockOut,
				DistanceMeters: geo.DistanceMeters(e.OutCoords, center),
				RadiusMeters:   radius,
			})
		}
	}
	return out
}

// OpenShiftsCount counts shifts without a clock-out.
func OpenShiftsCount(events []shift.ShiftEvent) int {
	n := 0
	for _, e := range events {
		if e.IsOpen() {
			n++
		}
	}
	return n
}

func known(c *geo.Coord) bool {
	return c != nil && c.Valid() && !c.IsZero()
}
