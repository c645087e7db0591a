package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
	EarthRadiusMeters = 6371000

	// DefaultRadiusMeters is the geofence radius applied when a branch has none.
	DefaultRadiusMeters = 100
)

// Coord is a latitude/longitude pair in decimal degrees.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zero is the degraded fix returned when no location is available.
var Zero = Coord{}

// IsZero reports whether c is the degraded {0,0} fix.
func (c Coord) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Valid reports whether c lies within geographic ranges and holds no NaN.
func (c Coord) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceMeters returns the great-circle distance between a and b in meters.
// A nil or NaN coordinate yields +Inf so callers can tell "unknown" from "zero".
func DistanceMeters(a, b *Coord) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	if math.IsNaN(a.Lat) || math.IsNaN(a.Lng) || math.IsNaN(b.Lat) || math.IsNaN(b.Lng) {
		return math.Inf(1)
	}

	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1)*math.Cos(lat2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// IsOutOfBounds reports whether point lies strictly outside the circle of
// radiusMeters around center. A non-positive radius means DefaultRadiusMeters.
func IsOutOfBounds(point, center *Coord, radiusMeters float64) bool {
	return DistanceMeters(point, center) > EffectiveRadius(radiusMeters)
}

// EffectiveRadius applies the default radius to unset values.
func EffectiveRadius(radiusMeters float64) float64 {
	if radiusMeters <= 0 || math.IsNaN(radiusMeters) {
		return DefaultRadiusMeters
	}
	return radiusMeters
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
