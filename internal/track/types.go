// Package track builds satellite ground tracks: it samples sub-satellite
// coordinates over a forecast window and prepares them for rendering on a
// flat map.
package track

import (
	"time"

	"github.com/rocheseb/satloc/internal/tle"
)

// GroundPoint is a sub-satellite position in degrees.
// Latitude is in [-90, 90], longitude in (-180, 180].
type GroundPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point is one ground track sample.
type Point struct {
	Time time.Time `json:"time"`
	GroundPoint
}

// Track is the ordered sequence of samples for one forecast run.
// Points are strictly increasing in time and evenly spaced by Interval.
type Track struct {
	Satellite *tle.ElementSet
	Start     time.Time
	Interval  time.Duration
	Points    []Point
}

// GroundPoints returns the coordinate sequence without timestamps.
func (t *Track) GroundPoints() []GroundPoint {
	pts := make([]GroundPoint, len(t.Points))
	for i, p := range t.Points {
		pts[i] = p.GroundPoint
	}
	return pts
}

// Segments splits the track at antimeridian crossings so each returned
// segment can be drawn as one unbroken line.
func (t *Track) Segments() []Segment {
	return SplitAtAntimeridian(t.GroundPoints())
}

// Markers returns every stride-th sample for sparse labeled markers.
// stride <= 0 selects DefaultMarkerStride.
func (t *Track) Markers(stride int) []Point {
	return Downsample(t.Points, stride)
}
