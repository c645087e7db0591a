package shift

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// ========================================
// CLOCK DTOs
// ========================================

type ClockInRequest struct {
	EmployeeID int64    `json:"employee_id"`
	BranchID   *int64   `json:"branch_id,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.BranchID != nil && *r.BranchID <= 0 {
		errs.Add("branch_id", "branch_id must be a positive number")
	}
	validateCoords(&errs, r.Latitude, r.Longitude)

	return errs.Err()
}

// Coords returns the request location, or nil when none was sent.
func (r *ClockInRequest) Coords() *geo.Coord {
	return coords(r.Latitude, r.Longitude)
}

// WithCoords sets the request location.
func (r *ClockInRequest) WithCoords(c geo.Coord) {
	r.Latitude, r.Longitude = &c.Lat, &c.Lng
}

type ClockOutRequest struct {
	EmployeeID int64    `json:"employee_id"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (r *ClockOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	validateCoords(&errs, r.Latitude, r.Longitude)

	return errs.Err()
}

func (r *ClockOutRequest) Coords() *geo.Coord {
	return coords(r.Latitude, r.Longitude)
}

func (r *ClockOutRequest) WithCoords(c geo.Coord) {
	r.Latitude, r.Longitude = &c.Lat, &c.Lng
}

func validateCoords(errs *validator.ValidationErrors, lat, lng *float64) {
	if (lat == nil) != (lng == nil) {
		errs.Add("coordinates", "latitude and longitude must be provided together")
		return
	}
	if lat != nil && !validator.IsValidLatitude(*lat) {
		errs.Add("latitude", "latitude must be between -90 and 90")
	}
	if lng != nil && !validator.IsValidLongitude(*lng) {
		errs.Add("longitude", "longitude must be between -180 and 180")
	}
}

func coords(lat, lng *float64) *geo.Coord {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Coord{Lat: *lat, Lng: *lng}
}

type ShiftResponse struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"employee_id"`
	BranchID     *int64     `json:"branch_id,omitempty"`
	ClockInTime  string     `json:"clock_in_time"`
	ClockOutTime *string    `json:"clock_out_time,omitempty"`
	InCoords     *geo.Coord `json:"in_coords,omitempty"`
	OutCoords    *geo.Coord `json:"out_coords,omitempty"`
	WorkingHours *float64   `json:"working_hours,omitempty"`
	Open         bool       `json:"open"`
}

func NewShiftResponse(e ShiftEvent) ShiftResponse {
	resp := ShiftResponse{
		ID:          e.ID,
		EmployeeID:  e.EmployeeID,
		BranchID:    e.BranchID,
		ClockInTime: e.ClockIn.Format(time.RFC3339),
		InCoords:    e.InCoords,
		OutCoords:   e.OutCoords,
		Open:        e.IsOpen(),
	}
	if e.ClockOut != nil {
		out := e.ClockOut.Format(time.RFC3339)
		resp.ClockOutTime = &out
	}
	if d, ok := e.Duration(); ok {
		hours := d.Hours()
		resp.WorkingHours = &hours
	}
	return resp
}

type StatusResponse struct {
	EmployeeID int64  `json:"employee_id"`
	Status     Status `json:"status"`
	NextAction string `json:"next_action"`
}
