package report

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
)

// DefaultShortShiftHours is the completed duration below which a shift is short.
const DefaultShortShiftHours = 8

// Flag marks which end of a shift fell outside its branch geofence.
type Flag string

const (
	FlagEntry Flag = "Entrada"
	FlagExit  Flag = "Salida"
)

// OutOfBoundsEvent is one flagged end of a shift. A shift can produce an
// entry flag, an exit flag, both or neither.
type OutOfBoundsEvent struct {
	Event          shift.ShiftEvent `json:"event"`
	BranchID       int64            `json:"branchId"`
	Flag           Flag             `json:"flag"`
	At             time.Time        `json:"at"`
	DistanceMeters float64          `json:"distanceMeters"`
	RadiusMeters   float64          `json:"radiusMeters"`
}

// ShortShift is a completed shift shorter than the threshold.
type ShortShift struct {
	Event shift.ShiftEvent `json:"event"`
	Hours float64          `json:"hours"`
}
