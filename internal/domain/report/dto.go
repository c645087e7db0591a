package report

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// ========================================
// SUMMARY REPORT
// ========================================

type SummaryRequest struct {
	EmployeeID     *int64     `json:"employee_id,omitempty"`
	Since          *time.Time `json:"since,omitempty"`
	ThresholdHours float64    `json:"threshold_hours,omitempty"`
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && *r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id must be a positive number")
	}
	if r.ThresholdHours < 0 {
		errs.Add("threshold_hours", "threshold_hours must not be negative")
	}

	return errs.Err()
}

// Threshold returns the short-shift threshold with the default applied.
func (r *SummaryRequest) Threshold() float64 {
	if r.ThresholdHours <= 0 {
		return DefaultShortShiftHours
	}
	return r.ThresholdHours
}

type Summary struct {
	GeneratedAt    time.Time          `json:"generated_at"`
	ThresholdHours float64            `json:"threshold_hours"`
	OpenShifts     int                `json:"open_shifts"`
	Hours          []EmployeeHoursRow `json:"hours"`
	ShortShifts    []ShortShiftRow    `json:"short_shifts"`
	OutOfBounds    []OutOfBoundsRow   `json:"out_of_bounds"`
}

type EmployeeHoursRow struct {
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	BranchName   string  `json:"branch_name"`
	Hours        float64 `json:"hours"`
}

type ShortShiftRow struct {
	ShiftID      int64     `json:"shift_id"`
	EmployeeID   int64     `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	ClockIn      time.Time `json:"clock_in"`
	ClockOut     time.Time `json:"clock_out"`
	Hours        float64   `json:"hours"`
}

type OutOfBoundsRow struct {
	ShiftID        int64     `json:"shift_id"`
	EmployeeID     int64     `json:"employee_id"`
	EmployeeName   string    `json:"employee_name"`
	BranchName     string    `json:"branch_name"`
	Flag           Flag      `json:"flag"`
	At             time.Time `json:"at"`
	DistanceMeters float64   `json:"distance_meters"`
	RadiusMeters   float64   `json:"radius_meters"`
}
