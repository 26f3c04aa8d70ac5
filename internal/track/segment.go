package track

import "math"

// Segment is a maximal run of consecutive ground points with no antimeridian
// crossing between neighbours.
type Segment []GroundPoint

// SplitAtAntimeridian splits a coordinate sequence into segments wherever two
// consecutive longitudes differ by strictly more than 180°, the signature of
// a ±180° wraparound. Drawing each segment separately avoids a spurious line
// across the whole map.
//
// A jump of exactly 180° does not split. Concatenating the returned segments
// reproduces the input sequence exactly: nothing is added, dropped, or
// reordered. Empty input yields an empty result.
func SplitAtAntimeridian(points []GroundPoint) []Segment {
	var segments []Segment
	var current Segment

	for _, p := range points {
		if len(current) > 0 && math.Abs(p.Lon-current[len(current)-1].Lon) > 180 {
			segments = append(segments, current)
			current = nil
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}

	return segments
}
