package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

// Static always reports the same coordinate, e.g. a kiosk's fixed position.
func Static(c geo.Coord) Source {
	return SourceFunc(func(context.Context) (geo.Coord, error) {
		return c, nil
	})
}

// Unavailable models a device without location support.
func Unavailable() Source {
	return SourceFunc(func(context.Context) (geo.Coord, error) {
		return geo.Coord{}, ErrUnavailable
	})
}

// HTTPSource asks a JSON endpoint for the current position. The response
// must carry "lat" plus either "lng" or "lon" (IP geolocation services use
// the latter).
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client}
}

type httpFix struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
	Lon *float64 `json:"lon"`
}

func (s *HTTPSource) Locate(ctx context.Context) (geo.Coord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return geo.Coord{}, fmt.Errorf("build location request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return geo.Coord{}, fmt.Errorf("location request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Coord{}, fmt.Errorf("location request: unexpected status %d", resp.StatusCode)
	}

	var fix httpFix
	if err := json.NewDecoder(resp.Body).Decode(&fix); err != nil {
		return geo.Coord{}, fmt.Errorf("decode location: %w", err)
	}

	lng := fix.Lng
	if lng == nil {
		lng = fix.Lon
	}
	if fix.Lat == nil || lng == nil {
		return geo.Coord{}, ErrUnavailable
	}
	return geo.Coord{Lat: *fix.Lat, Lng: *lng}, nil
}
