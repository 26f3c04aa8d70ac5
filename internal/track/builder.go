package track

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rocheseb/satloc/internal/metrics"
	"github.com/rocheseb/satloc/internal/tle"
)

// DefaultSampleInterval is the sampling cadence of the ground track. The
// 10-minute marker stride downstream assumes this exact value (20 × 30 s),
// so it is a product constant, not a tunable.
const DefaultSampleInterval = 30 * time.Second

// ElementSource resolves a catalog number to an element set. Implementations
// own any network or disk access; the builder performs none itself.
type ElementSource interface {
	ElementSet(ctx context.Context, catalogNumber int) (*tle.ElementSet, error)
}

// Propagator converts a UTC instant to a sub-satellite point for one element
// set.
type Propagator interface {
	SubPoint(t time.Time) (GroundPoint, error)
}

// PropagatorFactory initializes a Propagator for an element set. It fails if
// the element set cannot drive the orbit model.
type PropagatorFactory func(es *tle.ElementSet) (Propagator, error)

// Request describes one track computation.
type Request struct {
	CatalogNumber  int
	Start          time.Time     // zero means "now", resolved when Build runs
	ForecastHours  float64
	SampleInterval time.Duration // zero selects DefaultSampleInterval
	Workers        int           // > 1 samples in parallel; order is preserved
}

// Builder orchestrates track construction: it computes the sample instants,
// acquires the element set, and assembles the sampled coordinates into a
// Track. Each Build call is independent; the builder holds no mutable state.
type Builder struct {
	source  ElementSource
	factory PropagatorFactory
	logger  *slog.Logger
}

// NewBuilder creates a Builder over the given element source and propagator
// factory.
func NewBuilder(source ElementSource, factory PropagatorFactory, logger *slog.Logger) *Builder {
	return &Builder{source: source, factory: factory, logger: logger}
}

// Build computes the ground track for one request. The returned track has
// exactly floor(ForecastHours*3600/interval) samples in strictly increasing
// time order. Any fetch, validation, or propagation failure aborts the whole
// computation; partial tracks are never returned.
func (b *Builder) Build(ctx context.Context, req Request) (*Track, error) {
	// Resolve "now" at entry, never earlier: a start captured at
	// construction time would silently freeze for every later call.
	start := req.Start
	if start.IsZero() {
		start = time.Now()
	}
	start = start.UTC().Truncate(time.Second)

	interval := req.SampleInterval
	if interval == 0 {
		interval = DefaultSampleInterval
	}
	if interval < 0 {
		return nil, fmt.Errorf("%w: sample interval %s is not positive", ErrInvalidInput, interval)
	}
	if req.ForecastHours <= 0 {
		return nil, fmt.Errorf("%w: forecast hours %g is not positive", ErrInvalidInput, req.ForecastHours)
	}

	n := int(math.Floor(req.ForecastHours * 3600.0 / interval.Seconds()))
	if n < 1 {
		return nil, fmt.Errorf("%w: window %g h at interval %s yields no samples",
			ErrInvalidInput, req.ForecastHours, interval)
	}

	es, err := b.source.ElementSet(ctx, req.CatalogNumber)
	if err != nil {
		metrics.RecordElementFetch(fetchResult(err))
		return nil, err
	}
	metrics.RecordElementFetch("ok")

	prop, err := b.factory(es)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing propagator for catalog %d: %w",
			ErrPropagation, req.CatalogNumber, err)
	}

	instants := make([]time.Time, n)
	for i := range instants {
		instants[i] = start.Add(time.Duration(i) * interval)
	}

	b.logger.Debug("sampling ground track",
		"catalog_number", req.CatalogNumber,
		"start", start.Format(time.RFC3339),
		"samples", n,
		"interval", interval.String(),
		"workers", req.Workers,
	)

	t0 := time.Now()
	points, err := SampleParallel(ctx, prop.SubPoint, instants, req.Workers)
	if err != nil {
		return nil, err
	}
	metrics.ObserveTrackBuild(time.Since(t0), n)

	trk := &Track{
		Satellite: es,
		Start:     start,
		Interval:  interval,
		Points:    make([]Point, n),
	}
	for i := range points {
		trk.Points[i] = Point{Time: instants[i], GroundPoint: points[i]}
	}

	b.logger.Info("ground track built",
		"catalog_number", req.CatalogNumber,
		"satellite", es.Name,
		"samples", n,
		"duration_ms", time.Since(t0).Milliseconds(),
	)
	return trk, nil
}

// fetchResult maps an element source failure to a metrics label.
func fetchResult(err error) string {
	switch {
	case errors.Is(err, tle.ErrNotFound):
		return "not_found"
	default:
		var re *tle.RetrievalError
		if errors.As(err, &re) {
			return "retrieval_error"
		}
		return "error"
	}
}
