// Command satloc renders a satellite ground track forecast to an HTML map.
//
// Usage:
//
//	satloc [flags] <catalog id>
//
// The catalog id is the NORAD number of the satellite (ISS is 25544). The
// element set is fetched from CelesTrak unless -tle-file points at a local
// TLE file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/rocheseb/satloc/internal/geomap"
	"github.com/rocheseb/satloc/internal/propagation"
	"github.com/rocheseb/satloc/internal/tle"
	"github.com/rocheseb/satloc/internal/track"
)

const dateLayout = "20060102T150405"

type options struct {
	date          string
	outPath       string
	title         string
	forecastHours float64
	intervalSec   int
	tleFile       string
	cacheDir      string
	noCache       bool
	verbose       bool
}

func main() {
	opts := parseFlags()
	if err := run(opts, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "satloc:", err)
		os.Exit(1)
	}
}

func parseFlags() *options {
	opts := &options{}

	flag.StringVar(&opts.date, "d", "", "track start as YYYYMMDDTHHMMSS in UTC (default: now)")
	flag.StringVar(&opts.date, "date", "", "")
	flag.StringVar(&opts.outPath, "o", "satellite_track.html", "output HTML file path")
	flag.StringVar(&opts.outPath, "out-path", "satellite_track.html", "")
	flag.StringVar(&opts.title, "t", "", "map title (default: satellite name)")
	flag.StringVar(&opts.title, "title", "", "")
	flag.Float64Var(&opts.forecastHours, "f", 1.5, "forecast window in hours")
	flag.Float64Var(&opts.forecastHours, "forecast-hours", 1.5, "")
	flag.IntVar(&opts.intervalSec, "interval", 30, "sample interval in seconds")
	flag.StringVar(&opts.tleFile, "tle-file", "", "read elements from a local TLE file instead of fetching")
	flag.StringVar(&opts.cacheDir, "cache-dir", defaultCacheDir(), "directory for fetched element sets")
	flag.BoolVar(&opts.noCache, "no-cache", false, "always fetch, never read or write the cache")
	flag.BoolVar(&opts.verbose, "v", false, "verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: satloc [flags] <catalog id>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opts
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/satloc"
	}
	return ".satloc-cache"
}

func run(opts *options, args []string) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	catalogNumber, err := parseCatalogArg(args, opts.tleFile != "")
	if err != nil {
		return err
	}

	var start time.Time
	if opts.date != "" {
		start, err = time.Parse(dateLayout, opts.date)
		if err != nil {
			return fmt.Errorf("invalid -d value %q, expected YYYYMMDDTHHMMSS", opts.date)
		}
		start = start.UTC()
	}

	var source track.ElementSource
	switch {
	case opts.tleFile != "":
		source = &tle.FileSource{Path: opts.tleFile, Logger: logger}
	case opts.noCache:
		source = tle.NewCachedSource(tle.NewClient("", logger), nil, 0, logger)
	default:
		cache := tle.NewCache(opts.cacheDir, 0)
		source = tle.NewCachedSource(tle.NewClient("", logger), cache, 0, logger)
	}

	builder := track.NewBuilder(source, propagation.Factory, logger)
	trk, err := builder.Build(context.Background(), track.Request{
		CatalogNumber:  catalogNumber,
		Start:          start,
		ForecastHours:  opts.forecastHours,
		SampleInterval: time.Duration(opts.intervalSec) * time.Second,
	})
	if err != nil {
		if errors.Is(err, tle.ErrNotFound) {
			return fmt.Errorf("no element set for catalog id %d", catalogNumber)
		}
		return err
	}

	out, err := os.Create(opts.outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	if err := geomap.Render(out, trk, geomap.Options{Title: opts.title}); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	fmt.Printf("wrote %s (%s, %d samples from %s UTC)\n",
		opts.outPath, trk.Satellite.Name, len(trk.Points),
		trk.Start.UTC().Format("2006-01-02 15:04:05"))
	return nil
}

// parseCatalogArg reads the positional catalog id. With a local TLE file the
// id may be omitted; the first entry in the file is used.
func parseCatalogArg(args []string, haveFile bool) (int, error) {
	if len(args) == 0 {
		if haveFile {
			return 0, nil
		}
		return 0, errors.New("missing catalog id argument (ISS is 25544)")
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("expected one catalog id, got %d arguments", len(args))
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("catalog id %q is not a positive integer", args[0])
	}
	return n, nil
}
