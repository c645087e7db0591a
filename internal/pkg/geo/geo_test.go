package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	cases := []struct {
		name string
		a, b Coord
		want float64
		tol  float64
	}{
		{"same point", Coord{19.43, -99.13}, Coord{19.43, -99.13}, 0, 1e-9},
		{"mexico city north 0.07 deg", Coord{19.43, -99.13}, Coord{19.50, -99.13}, 7783.7, 5},
		{"one degree of longitude at equator", Coord{0, 0}, Coord{0, 1}, 111195, 5},
		{"antipodes", Coord{0, 0}, Coord{0, 180}, math.Pi * EarthRadiusMeters, 1},
	}
	for _, c := range cases {
		got := DistanceMeters(&c.a, &c.b)
		assert.InDelta(t, c.want, got, c.tol, c.name)
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	points := []Coord{
		{19.43, -99.13},
		{-33.86, 151.21},
		{51.5, -0.12},
		{0, 0},
		{89.9, 179.9},
	}
	for _, a := range points {
		for _, b := range points {
			a, b := a, b
			assert.Equal(t, DistanceMeters(&a, &b), DistanceMeters(&b, &a))
		}
		assert.Zero(t, DistanceMeters(&a, &a))
	}
}

func TestDistanceMeters_Unknown(t *testing.T) {
	known := Coord{19.43, -99.13}
	nan := Coord{math.NaN(), -99.13}

	assert.True(t, math.IsInf(DistanceMeters(nil, &known), 1))
	assert.True(t, math.IsInf(DistanceMeters(&known, nil), 1))
	assert.True(t, math.IsInf(DistanceMeters(&nan, &known), 1))
	assert.True(t, math.IsInf(DistanceMeters(&known, &nan), 1))
}

func TestIsOutOfBounds_Boundary(t *testing.T) {
	center := Coord{19.43, -99.13}
	point := Coord{19.50, -99.13}
	d := DistanceMeters(&point, &center)

	assert.False(t, IsOutOfBounds(&point, &center, d), "exactly on the radius is inside")
	assert.True(t, IsOutOfBounds(&point, &center, d-1e-6), "just beyond the radius is outside")
	assert.True(t, IsOutOfBounds(&point, &center, 100))
	assert.True(t, IsOutOfBounds(nil, &center, 100), "unknown distance is out of bounds")
}

func TestEffectiveRadius(t *testing.T) {
	assert.Equal(t, float64(DefaultRadiusMeters), EffectiveRadius(0))
	assert.Equal(t, float64(DefaultRadiusMeters), EffectiveRadius(-5))
	assert.Equal(t, float64(DefaultRadiusMeters), EffectiveRadius(math.NaN()))
	assert.Equal(t, 250.0, EffectiveRadius(250))
}

func TestCoord_Valid(t *testing.T) {
	cases := []struct {
		c    Coord
		want bool
	}{
		{Coord{0, 0}, true},
		{Coord{90, 180}, true},
		{Coord{-90, -180}, true},
		{Coord{90.1, 0}, false},
		{Coord{0, -180.5}, false},
		{Coord{math.NaN(), 0}, false},
	}
	for _, c := range cases {
		if got := c.c.Valid(); got != c.want {
			t.Errorf("Coord%v.Valid() = %v, want %v", c.c, got, c.want)
		}
	}
}
