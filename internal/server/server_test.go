package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligustah/geomap/internal/testutils"
	"github.com/ligustah/geomap/pkg/geomap"
)

type upProber struct{}

func (upProber) Connected(context.Context) bool { return true }

func newTestServer(t *testing.T, resp testutils.MapResponse) (*httptest.Server, *testutils.MapServer) {
	t.Helper()

	provider := testutils.StartMapServer(t, resp)
	reg := prometheus.NewRegistry()
	m, err := geomap.New(testutils.OpenMemBucket(t), geomap.Options{
		APIKey:     "k",
		Width:      320,
		Height:     240,
		BaseURL:    provider.URL,
		Prober:     upProber{},
		Registerer: reg,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(m, Options{
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}))
	t.Cleanup(srv.Close)
	return srv, provider
}

func get(t *testing.T, rawURL string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func post(t *testing.T, rawURL string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(rawURL, "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, testutils.MapResponse{})

	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestDownloadAndServe(t *testing.T) {
	data := testutils.GenerateTestData(t, 700)
	srv, _ := newTestServer(t, testutils.MapResponse{Data: data})

	resp, body := post(t, srv.URL+"/v1/maps?lat=52.5&lon=13.4&scale=100000")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res geomap.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "map52.500000_13.400000_100000.jpg", res.Filename)
	assert.Equal(t, int64(700), res.Bytes)
	assert.Equal(t, 320, res.Viewport.Width)

	resp, body = get(t, srv.URL+"/v1/maps/"+res.Filename)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, data, body)

	_, body = get(t, srv.URL+"/metrics")
	assert.Contains(t, string(body), `geomap_downloads_total{outcome="ok"} 1`)
}

func TestDownloadProviderError(t *testing.T) {
	srv, _ := newTestServer(t, testutils.MapResponse{Status: http.StatusInternalServerError})

	resp, body := post(t, srv.URL+"/v1/maps?lat=1&lon=2&scale=10")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var e errorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Contains(t, e.Error, "unexpected status")
	require.NotNil(t, e.Result)
	assert.Zero(t, e.Result.Bytes)
}

func TestDownloadValidation(t *testing.T) {
	srv, provider := newTestServer(t, testutils.MapResponse{Data: []byte("x")})

	for _, q := range []string{
		"lat=1&lon=2",
		"lat=91&lon=2&scale=10",
		"lat=1&lon=-181&scale=10",
		"lat=1&lon=2&scale=0",
		"lat=north&lon=2&scale=10",
	} {
		resp, _ := post(t, srv.URL+"/v1/maps?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
	assert.Empty(t, provider.Requests())
}

func TestOpenMissing(t *testing.T) {
	srv, _ := newTestServer(t, testutils.MapResponse{})

	resp, _ := get(t, srv.URL+"/v1/maps/map1.000000_2.000000_3.jpg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/v1/maps/notes.txt")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPixelAndCoordinates(t *testing.T) {
	srv, _ := newTestServer(t, testutils.MapResponse{})

	q := url.Values{
		"lat":        {"52.5"},
		"lon":        {"13.4"},
		"center_lat": {"52.5"},
		"center_lon": {"13.4"},
		"scale":      {"100000"},
	}
	resp, body := get(t, srv.URL+"/v1/pixel?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var px pixelResponse
	require.NoError(t, json.Unmarshal(body, &px))
	assert.Equal(t, geomap.CoordinatesPixel{X: 160, Y: 120}, px.Pixel)
	assert.True(t, px.Inside)

	q = url.Values{
		"x":          {"160"},
		"y":          {"120"},
		"center_lat": {"52.5"},
		"center_lon": {"13.4"},
		"scale":      {"100000"},
	}
	resp, body = get(t, srv.URL+"/v1/coordinates?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var c coordinatesResponse
	require.NoError(t, json.Unmarshal(body, &c))
	assert.InDelta(t, 52.5, c.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 13.4, c.Coordinates.Lon, 1e-9)

	resp, _ = get(t, srv.URL+"/v1/coordinates?x=1&y=2&center_lat=0&center_lon=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", Liveness(), nil) }()

	cancel()
	assert.NoError(t, <-done)
}
