// Package geomap renders a ground track as a self-contained HTML map.
//
// The map is an equirectangular longitude/latitude plot: each antimeridian
// segment becomes one line series, every sample gets a small marker, every
// Nth sample gets a larger hoverable marker carrying its UTC time, and the
// first sample is highlighted as the track start.
package geomap

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rocheseb/satloc/internal/track"
)

const (
	trackColor  = "#1f77b4"
	denseColor  = "#2ca02c"
	sparseColor = "#ff7f0e"
	startColor  = "#d62728"

	timeLayout = "2006-01-02 15:04:05"
)

// Options controls the rendered page.
type Options struct {
	Title        string
	MarkerStride int // every Nth sample gets a labeled marker; <= 0 selects the default
	Width        string
	Height       string
}

// Render writes the HTML map for a track to w.
func Render(w io.Writer, trk *track.Track, o Options) error {
	width := o.Width
	if width == "" {
		width = "1200px"
	}
	height := o.Height
	if height == "" {
		height = "700px"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: pageTitle(o.Title, trk),
			Width:     width,
			Height:    height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    pageTitle(o.Title, trk),
			Subtitle: subtitle(trk, o.MarkerStride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: -180, Max: 180, Name: "Longitude"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -90, Max: 90, Name: "Latitude"}),
	)

	for i, seg := range trk.Segments() {
		data := make([]opts.LineData, 0, len(seg))
		for _, p := range seg {
			data = append(data, opts.LineData{Value: []interface{}{p.Lon, p.Lat}})
		}
		line.AddSeries(fmt.Sprintf("track %d", i+1), data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: trackColor, Width: 2}),
		)
	}

	dense := charts.NewScatter()
	denseData := make([]opts.ScatterData, 0, len(trk.Points))
	for _, p := range trk.Points {
		denseData = append(denseData, opts.ScatterData{Value: []interface{}{p.Lon, p.Lat}})
	}
	dense.AddSeries("samples", denseData,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: denseColor}),
	)

	sparse := charts.NewScatter()
	markers := trk.Markers(o.MarkerStride)
	sparseData := make([]opts.ScatterData, 0, len(markers))
	for _, p := range markers {
		sparseData = append(sparseData, opts.ScatterData{
			Name:  p.Time.UTC().Format(timeLayout) + " UTC",
			Value: []interface{}{p.Lon, p.Lat},
		})
	}
	sparse.AddSeries("markers", sparseData,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 7}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: sparseColor}),
	)

	start := charts.NewScatter()
	if len(trk.Points) > 0 {
		first := trk.Points[0]
		start.AddSeries("start", []opts.ScatterData{{
			Name:  "start " + first.Time.UTC().Format(timeLayout) + " UTC",
			Value: []interface{}{first.Lon, first.Lat},
		}},
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: startColor}),
		)
	}

	line.Overlap(dense, sparse, start)
	return line.Render(w)
}

// pageTitle falls back to the satellite name when no title was given.
func pageTitle(title string, trk *track.Track) string {
	if title != "" {
		return title
	}
	if trk.Satellite != nil && trk.Satellite.Name != "" {
		return trk.Satellite.Name + " ground track"
	}
	return "satellite ground track"
}

// subtitle summarizes the sampling cadence for the reader of the map.
func subtitle(trk *track.Track, stride int) string {
	if stride <= 0 {
		stride = track.DefaultMarkerStride
	}
	return fmt.Sprintf("start %s UTC · %d samples every %s · labeled markers every %s · red marker is the start",
		trk.Start.UTC().Format(timeLayout),
		len(trk.Points),
		trk.Interval,
		trk.Interval*time.Duration(stride),
	)
}
