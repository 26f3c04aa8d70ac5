// Package propagation wraps the SGP4 orbit model behind the track package's
// Propagator interface.
//
// SGP4 library choice: github.com/joshuaferrara/go-satellite — pure Go (no
// CGO), battle-tested since 2016, explicit TEME output.
//
// Note: Propagate() takes Satellite by value so SGP4 error codes are not
// visible to the caller. Propagation failures are detected by checking the
// output for NaN/Inf and unreasonable position magnitudes.
package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/rocheseb/satloc/internal/tle"
	"github.com/rocheseb/satloc/internal/track"
	"github.com/rocheseb/satloc/internal/transform"
)

// Orbit radius sanity bounds in km: below LEO perigee or beyond high orbit
// means the model diverged.
const (
	minRadiusKm = 6200.0
	maxRadiusKm = 50000.0
)

// SGP4Propagator computes sub-satellite points for a single element set.
// Immutable after construction; safe for concurrent use, which is what
// allows the sampler to fan instants out across workers.
type SGP4Propagator struct {
	sat           satellite.Satellite
	catalogNumber int
}

// New initializes the SGP4 model for an element set. Returns an error if the
// TLE is malformed or the model rejects it.
//
// The lines are pre-validated before being handed to the library, because
// go-satellite calls log.Fatal on malformed input (which would kill the
// process).
func New(es *tle.ElementSet) (*SGP4Propagator, error) {
	if err := validateTLELines(es.Line1, es.Line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for catalog %d: %w", es.CatalogNumber, err)
	}

	sat := satellite.TLEToSat(es.Line1, es.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for catalog %d: code=%d %s",
			es.CatalogNumber, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, catalogNumber: es.CatalogNumber}, nil
}

// Factory adapts New to the track.PropagatorFactory signature.
func Factory(es *tle.ElementSet) (track.Propagator, error) {
	return New(es)
}

// SubPoint returns the sub-satellite geodetic point at a UTC instant.
func (p *SGP4Propagator) SubPoint(t time.Time) (track.GroundPoint, error) {
	t = t.UTC()
	pos, _ := satellite.Propagate(p.sat,
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return track.GroundPoint{}, fmt.Errorf(
			"sgp4 propagation failed for catalog %d at %s: output is NaN/Inf",
			p.catalogNumber, t.Format(time.RFC3339))
	}

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < minRadiusKm || mag > maxRadiusKm {
		return track.GroundPoint{}, fmt.Errorf(
			"sgp4 propagation failed for catalog %d at %s: unreasonable position magnitude %.1f km",
			p.catalogNumber, t.Format(time.RFC3339), mag)
	}

	geo := transform.SubPoint(transform.PositionTEME{X: pos.X, Y: pos.Y, Z: pos.Z}, t)
	return track.GroundPoint{Lat: geo.LatDeg, Lon: geo.LonDeg}, nil
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}
