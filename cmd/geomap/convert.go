package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ligustah/geomap/pkg/geomap"
)

// runURL prints the provider request for a map without fetching it.
func runURL(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("url", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := newConfigFlags(fs)

	lat := fs.Float64("lat", 0, "Latitude of the map center (required)")
	lon := fs.Float64("lon", 0, "Longitude of the map center (required)")
	scale := fs.Int64("scale", 0, "Map scale (required)")

	code, ok := parseConvert(fs, args, stderr, "lat", "lon", "scale")
	if !ok {
		return code
	}
	cfg, err := cf.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	center := geomap.Coordinates{Lat: *lat, Lon: *lon}
	fmt.Fprintln(stdout, geomap.BuildURL(cfg.BaseURL, cfg.APIKey, cfg.Width, cfg.Height, *scale, center))
	return ExitSuccess
}

// runPixel converts a coordinate to a pixel on the map centered on
// center-lat/center-lon.
func runPixel(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pixel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := newConfigFlags(fs)

	lat := fs.Float64("lat", 0, "Latitude to convert (required)")
	lon := fs.Float64("lon", 0, "Longitude to convert (required)")
	centerLat := fs.Float64("center-lat", 0, "Latitude of the map center (required)")
	centerLon := fs.Float64("center-lon", 0, "Longitude of the map center (required)")
	scale := fs.Int64("scale", 0, "Map scale (required)")

	code, ok := parseConvert(fs, args, stderr, "lat", "lon", "center-lat", "center-lon", "scale")
	if !ok {
		return code
	}
	v, code, ok := viewport(cf, stderr, *centerLat, *centerLon, *scale)
	if !ok {
		return code
	}

	return printJSON(stdout, stderr, v.ToPixel(geomap.Coordinates{Lat: *lat, Lon: *lon}))
}

// runCoords converts a pixel on the map centered on center-lat/center-lon to
// a coordinate.
func runCoords(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("coords", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := newConfigFlags(fs)

	x := fs.Float64("x", 0, "Pixel column, 0 is the left edge (required)")
	y := fs.Float64("y", 0, "Pixel row, 0 is the top edge (required)")
	centerLat := fs.Float64("center-lat", 0, "Latitude of the map center (required)")
	centerLon := fs.Float64("center-lon", 0, "Longitude of the map center (required)")
	scale := fs.Int64("scale", 0, "Map scale (required)")

	code, ok := parseConvert(fs, args, stderr, "x", "y", "center-lat", "center-lon", "scale")
	if !ok {
		return code
	}
	v, code, ok := viewport(cf, stderr, *centerLat, *centerLon, *scale)
	if !ok {
		return code
	}

	return printJSON(stdout, stderr, v.ToCoordinates(geomap.CoordinatesPixel{X: *x, Y: *y}))
}

func parseConvert(fs *flag.FlagSet, args []string, stderr io.Writer, required ...string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess, false
		}
		return ExitInvalidArgs, false
	}
	if missing := requireFlags(fs, required...); len(missing) > 0 {
		fmt.Fprintf(stderr, "Error: %v required\n", missing)
		fs.Usage()
		return ExitInvalidArgs, false
	}
	return ExitSuccess, true
}

func viewport(cf *configFlags, stderr io.Writer, lat, lon float64, scale int64) (geomap.Viewport, int, bool) {
	cfg, err := cf.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return geomap.Viewport{}, ExitInvalidArgs, false
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || scale <= 0 {
		fmt.Fprintln(stderr, "Error: width, height and scale must be positive")
		return geomap.Viewport{}, ExitInvalidArgs, false
	}
	return geomap.Viewport{
		Center: geomap.Coordinates{Lat: lat, Lon: lon},
		Scale:  scale,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, ExitSuccess, true
}

func printJSON(stdout, stderr io.Writer, v any) int {
	if err := json.NewEncoder(stdout).Encode(v); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	return ExitSuccess
}
