// Package geomap fetches static map images from a web map provider and
// converts between geographic coordinates and pixel positions on them.
//
// A [Map] has a fixed image size and a storage bucket. Each [Map.Download]
// builds the provider request for a center and scale, streams the answer
// into the bucket under [Filename] and returns the [Viewport] the image
// covers:
//
//	bucket, _ := blob.OpenBucket(ctx, "file:///var/lib/geomap")
//	m, err := geomap.New(bucket, geomap.Options{APIKey: key, Width: 320, Height: 240})
//	res, err := m.Download(ctx, geomap.Coordinates{Lat: 52.5, Lon: 13.4}, 100000, nil)
//	px := res.Viewport.ToPixel(geomap.Coordinates{Lat: 52.51, Lon: 13.41})
//
// # Projection
//
// The transforms use a flat equirectangular approximation with a single
// resolution for both axes, see [Resolution]. They are accurate near the
// equator and at small extents only. North is up and x grows eastwards.
package geomap
