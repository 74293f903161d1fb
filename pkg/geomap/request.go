package geomap

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the static map provider used when none is configured.
const DefaultBaseURL = "http://open.mapquestapi.com"

// MapPath is the provider endpoint below the base URL.
const MapPath = "/staticmap/v4/getmap"

// ErrInvalidFilename is returned by ParseFilename for names Filename never
// produces.
var ErrInvalidFilename = errors.New("geomap: invalid map filename")

// BuildURL returns the provider request for a width x height image centered
// on center at scale. Coordinates are rendered with six decimals.
func BuildURL(baseURL, apiKey string, width, height int, scale int64, center Coordinates) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return fmt.Sprintf("%s%s?key=%s&type=map&scalebar=false&size=%d,%d&scale=%d&center=%f,%f",
		strings.TrimSuffix(baseURL, "/"),
		MapPath,
		url.QueryEscape(apiKey),
		width, height,
		scale,
		center.Lat, center.Lon,
	)
}

// Filename returns the storage name for the image centered on center at
// scale, e.g. "map52.500000_13.400000_100000.jpg".
func Filename(center Coordinates, scale int64) string {
	return fmt.Sprintf("map%f_%f_%d.jpg", center.Lat, center.Lon, scale)
}

// ParseFilename recovers the center and scale encoded by Filename.
func ParseFilename(name string) (Coordinates, int64, error) {
	body, ok := strings.CutPrefix(name, "map")
	if !ok {
		return Coordinates{}, 0, fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	body, ok = strings.CutSuffix(body, ".jpg")
	if !ok {
		return Coordinates{}, 0, fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}

	parts := strings.Split(body, "_")
	if len(parts) != 3 {
		return Coordinates{}, 0, fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}

	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Coordinates{}, 0, fmt.Errorf("%w: lat: %v", ErrInvalidFilename, err)
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Coordinates{}, 0, fmt.Errorf("%w: lon: %v", ErrInvalidFilename, err)
	}
	scale, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Coordinates{}, 0, fmt.Errorf("%w: scale: %v", ErrInvalidFilename, err)
	}

	return Coordinates{Lat: lat, Lon: lon}, scale, nil
}
