package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ligustah/geomap/internal/logger"
	"github.com/ligustah/geomap/internal/progress"
	"github.com/ligustah/geomap/pkg/geomap"
)

// runFetch downloads one static map into the configured bucket.
func runFetch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := newConfigFlags(fs)

	lat := fs.Float64("lat", 0, "Latitude of the map center (required)")
	lon := fs.Float64("lon", 0, "Longitude of the map center (required)")
	scale := fs.Int64("scale", 0, "Map scale (required)")
	asJSON := fs.Bool("json", false, "Print the result as JSON on stdout")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: geomap fetch -lat <lat> -lon <lon> -scale <scale> [options]

Download the static map centered on lat/lon at scale and store it in the
bucket as map<lat>_<lon>_<scale>.jpg.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}

	if missing := requireFlags(fs, "lat", "lon", "scale"); len(missing) > 0 {
		fmt.Fprintf(stderr, "Error: %v required\n", missing)
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := cf.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating logger: %v\n", err)
		return ExitGeneralError
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	bkt, err := openBucket(ctx, cfg.Bucket)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	m, err := openMap(bkt, cfg, log, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	center := geomap.Coordinates{Lat: *lat, Lon: *lon}

	var fn geomap.ProgressFunc
	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			Output:    stderr,
			SourceURL: m.URL(center, *scale),
		})
		fn = reporter.Report
	}

	res, err := m.Download(ctx, center, *scale, fn)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(stderr, "\n[geomap] Download interrupted")
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, geomap.ErrPartialTransfer) {
			fmt.Fprintf(stderr, "[geomap] Kept truncated %s (%s)\n", res.Filename, progress.FormatBytes(res.Bytes))
		}
		return exitCode(err)
	}
	if reporter != nil {
		reporter.Finish()
	}

	if res.Skipped {
		fmt.Fprintf(stderr, "[geomap] Already stored: %s\n", res.Filename)
	} else {
		fmt.Fprintf(stderr, "[geomap] Saved: %s\n", res.Filename)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
	}
	return ExitSuccess
}
