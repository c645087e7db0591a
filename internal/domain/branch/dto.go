package branch

import (
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// BranchResponse represents the response structure for a branch.
type BranchResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters float64  `json:"radius_meters"`
	Geofenced    bool     `json:"geofenced"`
}

func NewBranchResponse(b Branch) BranchResponse {
	return BranchResponse{
		ID:           b.ID,
		Name:         b.Name,
		Latitude:     b.Latitude,
		Longitude:    b.Longitude,
		RadiusMeters: b.Radius(),
		Geofenced:    b.Location() != nil,
	}
}

// CreateBranchRequest represents the request structure for creating a branch.
type CreateBranchRequest struct {
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters *float64 `json:"radius_meters,omitempty"`
}

func (r *CreateBranchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if !validator.MaxLen(r.Name, 100) {
		errs.Add("name", "name must not exceed 100 characters")
	}

	validateLocation(&errs, r.Latitude, r.Longitude, r.RadiusMeters)

	return errs.Err()
}

// UpdateBranchRequest represents the request structure for updating a branch.
// Nil fields are left untouched.
type UpdateBranchRequest struct {
	ID           int64    `json:"-"`
	Name         *string  `json:"name,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters *float64 `json:"radius_meters,omitempty"`
	// ClearLocation drops the branch coordinates, disabling geofence checks.
	ClearLocation bool `json:"clear_location,omitempty"`
}

func (r *UpdateBranchRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ID <= 0 {
		errs.Add("id", "id is required")
	}

	if r.Name != nil {
		if validator.IsEmpty(*r.Name) {
			errs.Add("name", "name must not be empty")
		} else if !validator.MaxLen(*r.Name, 100) {
			errs.Add("name", "name must not exceed 100 characters")
		}
	}

	if r.ClearLocation && (r.Latitude != nil || r.Longitude != nil) {
		errs.Add("clear_location", "cannot clear and set coordinates at the same time")
	}

	validateLocation(&errs, r.Latitude, r.Longitude, r.RadiusMeters)

	return errs.Err()
}

func validateLocation(errs *validator.ValidationErrors, lat, lng, radius *float64) {
	if (lat == nil) != (lng == nil) {
		errs.Add("coordinates", "latitude and longitude must be provided together")
	}
	if lat != nil && !validator.IsValidLatitude(*lat) {
		errs.Add("latitude", "latitude must be between -90 and 90")
	}
	if lng != nil && !validator.IsValidLongitude(*lng) {
		errs.Add("longitude", "longitude must be between -180 and 180")
	}
	if radius != nil && *radius < 0 {
		errs.Add("radius_meters", "radius_meters must not be negative")
	}
}
