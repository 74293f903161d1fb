package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ligustah/geomap/pkg/geomap"
)

type mapQuery struct {
	Lat   float64 `validate:"gte=-90,lte=90"`
	Lon   float64 `validate:"gte=-180,lte=180"`
	Scale int64   `validate:"gt=0"`
}

type pixelQuery struct {
	Lat       float64 `validate:"gte=-90,lte=90"`
	Lon       float64 `validate:"gte=-180,lte=180"`
	CenterLat float64 `validate:"gte=-90,lte=90"`
	CenterLon float64 `validate:"gte=-180,lte=180"`
	Scale     int64   `validate:"gt=0"`
}

type coordinatesQuery struct {
	X         float64
	Y         float64
	CenterLat float64 `validate:"gte=-90,lte=90"`
	CenterLon float64 `validate:"gte=-180,lte=180"`
	Scale     int64   `validate:"gt=0"`
}

type errorResponse struct {
	Error  string         `json:"error"`
	Result *geomap.Result `json:"result,omitempty"`
}

type pixelResponse struct {
	Pixel    geomap.CoordinatesPixel `json:"pixel"`
	Inside   bool                    `json:"inside"`
	Viewport geomap.Viewport         `json:"viewport"`
}

type coordinatesResponse struct {
	Coordinates geomap.Coordinates `json:"coordinates"`
	Viewport    geomap.Viewport    `json:"viewport"`
}

func (h *handler) download(w http.ResponseWriter, r *http.Request) {
	var q mapQuery
	if err := h.bind(r.URL.Query(), &q, map[string]any{"lat": &q.Lat, "lon": &q.Lon, "scale": &q.Scale}); err != nil {
		writeError(w, http.StatusBadRequest, err, nil)
		return
	}

	res, err := h.m.Download(r.Context(), geomap.Coordinates{Lat: q.Lat, Lon: q.Lon}, q.Scale, nil)
	if err != nil {
		h.log.Warn("Download failed", zap.Error(err))
		writeError(w, downloadStatus(err), err, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) open(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rd, err := h.m.Open(r.Context(), name)
	switch {
	case errors.Is(err, geomap.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, err, nil)
		return
	case errors.Is(err, geomap.ErrMapNotFound):
		writeError(w, http.StatusNotFound, err, nil)
		return
	case err != nil:
		h.log.Error("Open failed", zap.String("filename", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err, nil)
		return
	}
	defer rd.Close()

	w.Header().Set("Content-Type", rd.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(rd.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rd); err != nil {
		h.log.Warn("Serving map aborted", zap.String("filename", name), zap.Error(err))
	}
}

func (h *handler) pixel(w http.ResponseWriter, r *http.Request) {
	var q pixelQuery
	err := h.bind(r.URL.Query(), &q, map[string]any{
		"lat":        &q.Lat,
		"lon":        &q.Lon,
		"center_lat": &q.CenterLat,
		"center_lon": &q.CenterLon,
		"scale":      &q.Scale,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err, nil)
		return
	}

	v := h.m.Viewport(geomap.Coordinates{Lat: q.CenterLat, Lon: q.CenterLon}, q.Scale)
	px := v.ToPixel(geomap.Coordinates{Lat: q.Lat, Lon: q.Lon})
	writeJSON(w, http.StatusOK, pixelResponse{Pixel: px, Inside: v.Contains(px), Viewport: v})
}

func (h *handler) coordinates(w http.ResponseWriter, r *http.Request) {
	var q coordinatesQuery
	err := h.bind(r.URL.Query(), &q, map[string]any{
		"x":          &q.X,
		"y":          &q.Y,
		"center_lat": &q.CenterLat,
		"center_lon": &q.CenterLon,
		"scale":      &q.Scale,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err, nil)
		return
	}

	v := h.m.Viewport(geomap.Coordinates{Lat: q.CenterLat, Lon: q.CenterLon}, q.Scale)
	c := v.ToCoordinates(geomap.CoordinatesPixel{X: q.X, Y: q.Y})
	writeJSON(w, http.StatusOK, coordinatesResponse{Coordinates: c, Viewport: v})
}

// bind parses the required query parameters into fields and validates dst.
func (h *handler) bind(values url.Values, dst any, fields map[string]any) error {
	for name, field := range fields {
		raw := values.Get(name)
		if raw == "" {
			return fmt.Errorf("missing query parameter %q", name)
		}
		switch f := field.(type) {
		case *float64:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %q", name, raw)
			}
			*f = v
		case *int64:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %q", name, raw)
			}
			*f = v
		}
	}
	return h.validate.Struct(dst)
}

func downloadStatus(err error) int {
	switch {
	case errors.Is(err, geomap.ErrConnectionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, geomap.ErrRequestFailed),
		errors.Is(err, geomap.ErrUnexpectedStatus),
		errors.Is(err, geomap.ErrPartialTransfer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, res *geomap.Result) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Result: res})
}
