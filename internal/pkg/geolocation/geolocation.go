// Package geolocation supplies best-effort device coordinates. Callers never
// see an error: any failure degrades to geo.Zero.
package geolocation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

// DefaultTimeout bounds how long a clock action waits for a fix.
const DefaultTimeout = 7 * time.Second

// ErrUnavailable is returned by sources that have no fix to offer.
var ErrUnavailable = errors.New("location unavailable")

// Source is a raw location backend. Sources may fail or block; Provider
// bounds and absorbs both.
type Source interface {
	Locate(ctx context.Context) (geo.Coord, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (geo.Coord, error)

func (f SourceFunc) Locate(ctx context.Context) (geo.Coord, error) {
	return f(ctx)
}

// Provider wraps a Source with a timeout and the zero-coordinate fallback.
type Provider struct {
	source  Source
	timeout time.Duration
	logger  *slog.Logger
}

func NewProvider(source Source, timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if source == nil {
		source = Unavailable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{source: source, timeout: timeout, logger: logger}
}

// Current returns the device location, or geo.Zero on denial, timeout,
// invalid fix or an unsupported backend.
func (p *Provider) Current(ctx context.Context) geo.Coord {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		coord geo.Coord
		err   error
	}
	// Buffered so an abandoned source never blocks on send.
	done := make(chan result, 1)
	go func() {
		c, err := p.source.Locate(ctx)
		done <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		p.logger.Warn("location lookup timed out, using zero coordinates", "timeout", p.timeout)
		return geo.Zero
	case r := <-done:
		if r.err != nil {
			p.logger.Warn("location lookup failed, using zero coordinates", "error", r.err)
			return geo.Zero
		}
		if !r.coord.Valid() {
			p.logger.Warn("location source returned invalid coordinates", "lat", r.coord.Lat, "lng", r.coord.Lng)
			return geo.Zero
		}
		return r.coord
	}
}
