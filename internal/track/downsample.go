package track

// DefaultMarkerStride selects every 20th sample, which at the default 30 s
// sampling interval places a labeled marker every 10 minutes.
const DefaultMarkerStride = 20

// Downsample returns every stride-th point, starting with the first.
// stride <= 0 selects DefaultMarkerStride.
func Downsample(points []Point, stride int) []Point {
	if stride <= 0 {
		stride = DefaultMarkerStride
	}
	out := make([]Point, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	return out
}
