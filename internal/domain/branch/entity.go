package branch

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

// Branch is a work location with an optional circular geofence.
type Branch struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Latitude     *float64  `json:"lat,omitempty"`
	Longitude    *float64  `json:"lng,omitempty"`
	RadiusMeters float64   `json:"radiusMeters,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Location returns the branch center, or nil when geofencing is disabled.
func (b Branch) Location() *geo.Coord {
	if b.Latitude == nil || b.Longitude == nil {
		return nil
	}
	return &geo.Coord{Lat: *b.Latitude, Lng: *b.Longitude}
}

// Radius returns the geofence radius with the default applied.
func (b Branch) Radius() float64 {
	return geo.EffectiveRadius(b.RadiusMeters)
}
