package propagation

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/rocheseb/satloc/internal/tle"
	"github.com/rocheseb/satloc/internal/track"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Real ISS orbital elements (epoch 2024 day 100.5).
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func issElements() *tle.ElementSet {
	return &tle.ElementSet{
		CatalogNumber: 25544,
		Name:          "ISS (ZARYA)",
		Epoch:         time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC),
		Line1:         issLine1,
		Line2:         issLine2,
	}
}

// TestSubPointRanges verifies the sub-satellite point respects the coordinate
// ranges and the orbit's inclination bound across a full orbital period.
func TestSubPointRanges(t *testing.T) {
	prop, err := New(issElements())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 186; i++ { // ~93 min ISS period at 30 s steps
		gp, err := prop.SubPoint(start.Add(time.Duration(i) * 30 * time.Second))
		if err != nil {
			t.Fatalf("SubPoint failed at step %d: %v", i, err)
		}
		// Ground latitude cannot exceed the orbital inclination (51.64°).
		if math.Abs(gp.Lat) > 52 {
			t.Errorf("step %d: |latitude| = %f exceeds inclination bound", i, gp.Lat)
		}
		if gp.Lon <= -180 || gp.Lon > 180 {
			t.Errorf("step %d: longitude %f out of (-180, 180]", i, gp.Lon)
		}
	}
}

// TestSubPointMoves verifies consecutive samples are distinct: an LEO
// satellite moves ~4° of ground arc per 30 s.
func TestSubPointMoves(t *testing.T) {
	prop, err := New(issElements())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t0 := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	a, err := prop.SubPoint(t0)
	if err != nil {
		t.Fatalf("SubPoint failed: %v", err)
	}
	b, err := prop.SubPoint(t0.Add(30 * time.Second))
	if err != nil {
		t.Fatalf("SubPoint failed: %v", err)
	}

	if a == b {
		t.Error("sub-point did not move over 30 s")
	}
}

// TestSubPointDeterministic verifies repeated evaluation of the same instant
// yields the identical point (the propagator holds no mutable state).
func TestSubPointDeterministic(t *testing.T) {
	prop, err := New(issElements())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t0 := time.Date(2024, 4, 9, 13, 30, 0, 0, time.UTC)
	a, err := prop.SubPoint(t0)
	if err != nil {
		t.Fatalf("SubPoint failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		b, err := prop.SubPoint(t0)
		if err != nil {
			t.Fatalf("SubPoint failed: %v", err)
		}
		if a != b {
			t.Fatalf("SubPoint not deterministic: %v vs %v", a, b)
		}
	}
}

// TestNewRejectsMalformedTLE verifies garbage lines error out instead of
// reaching the library (which would log.Fatal).
func TestNewRejectsMalformedTLE(t *testing.T) {
	cases := []struct {
		name         string
		line1, line2 string
	}{
		{"empty", "", ""},
		{"short line1", "1 25544U", issLine2},
		{"short line2", issLine1, "2 25544"},
		{"swapped prefixes", issLine2, issLine1},
	}
	for _, c := range cases {
		es := &tle.ElementSet{CatalogNumber: 25544, Line1: c.line1, Line2: c.line2}
		if _, err := New(es); err == nil {
			t.Errorf("%s: expected error, got nil", c.name)
		}
	}
}

// TestFactoryWithBuilder drives the track builder with the real SGP4
// propagator over a stub element source: a full pipeline run without network
// access.
func TestFactoryWithBuilder(t *testing.T) {
	source := fixedSource{es: issElements()}
	b := track.NewBuilder(source, Factory, testLogger)

	trk, err := b.Build(context.Background(), track.Request{
		CatalogNumber: 25544,
		Start:         time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC),
		ForecastHours: 3,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(trk.Points) != 360 {
		t.Fatalf("expected 360 samples, got %d", len(trk.Points))
	}

	// Two ISS orbits sweep well past 360° of longitude, so the track must
	// cross the antimeridian at least once.
	segments := trk.Segments()
	if len(segments) < 2 {
		t.Errorf("expected at least 2 segments for a 3 h LEO track, got %d", len(segments))
	}
	var total int
	for _, seg := range segments {
		total += len(seg)
	}
	if total != len(trk.Points) {
		t.Errorf("segments hold %d points, track has %d", total, len(trk.Points))
	}
}

type fixedSource struct {
	es *tle.ElementSet
}

func (s fixedSource) ElementSet(context.Context, int) (*tle.ElementSet, error) {
	return s.es, nil
}
