package geomap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/ligustah/geomap/internal/downloader"
	geohttp "github.com/ligustah/geomap/internal/http"
	"github.com/ligustah/geomap/internal/logger"
	"github.com/ligustah/geomap/internal/metrics"
	"github.com/ligustah/geomap/internal/network"
	"github.com/ligustah/geomap/internal/progress"
)

// Download error kinds, see [Map.Download].
var (
	ErrConnectionUnavailable = downloader.ErrConnectionUnavailable
	ErrRequestFailed         = downloader.ErrRequestFailed
	ErrUnexpectedStatus      = downloader.ErrUnexpectedStatus
	ErrFileOpenFailure       = downloader.ErrFileOpenFailure
	ErrWriteFailure          = downloader.ErrWriteFailure
	ErrPartialTransfer       = downloader.ErrPartialTransfer
)

// ErrMapNotFound is returned by [Map.Open] when no image is stored under the
// requested name.
var ErrMapNotFound = errors.New("geomap: map not found")

// ProgressFunc receives download progress. total is -1 when the provider
// did not announce a length.
type ProgressFunc func(filename string, done, total int64)

// Prober reports whether the network is usable.
type Prober interface {
	Connected(ctx context.Context) bool
}

// Options configures a Map.
type Options struct {
	// APIKey is sent to the provider with every request.
	APIKey string

	// Width and Height are the image dimensions in pixels (required).
	Width  int
	Height int

	// BaseURL of the provider.
	// Default: DefaultBaseURL
	BaseURL string

	// SkipIfExists makes Download return without a request when the image
	// is already stored.
	SkipIfExists bool

	// ChunkSize is the streaming buffer size.
	// Default: 128
	ChunkSize int

	// ConnectTimeout bounds the wait for connectivity. A negative value
	// probes once without waiting.
	// Default: 30s
	ConnectTimeout time.Duration

	// RequestTimeout bounds a whole request.
	// Default: 60s
	RequestTimeout time.Duration

	// Prober checks connectivity. Nil dials the provider host.
	Prober Prober

	// Logger receives diagnostics. Optional.
	Logger *zap.Logger

	// Registerer, when set, receives the download metrics.
	Registerer prometheus.Registerer
}

// Result describes a download.
type Result struct {
	Viewport Viewport `json:"viewport"`
	URL      string   `json:"-"`
	Filename string   `json:"filename"`
	Bytes    int64    `json:"bytes"`
	Total    int64    `json:"total"`
	Skipped  bool     `json:"skipped"`
}

// Map fetches static map images of a fixed size into a bucket. Downloads on
// one Map are serialized.
type Map struct {
	opts    Options
	bucket  *blob.Bucket
	client  *geohttp.Client
	prober  network.Prober
	log     *zap.Logger
	metrics *metrics.Downloads

	mu sync.Mutex
}

// New creates a Map storing images in bucket.
func New(bucket *blob.Bucket, opts Options) (*Map, error) {
	if bucket == nil {
		return nil, errors.New("geomap: bucket is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("geomap: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	m := &Map{
		opts:   opts,
		bucket: bucket,
		log:    logger.OrNop(opts.Logger),
	}

	httpOpts := geohttp.DefaultOptions()
	if opts.RequestTimeout > 0 {
		httpOpts.Timeout = opts.RequestTimeout
	}
	m.client = geohttp.NewClient(httpOpts)

	if opts.Prober != nil {
		m.prober = opts.Prober
	} else {
		p, err := network.NewDialProber(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("geomap: base url: %w", err)
		}
		m.prober = p
	}

	if opts.Registerer != nil {
		m.metrics = metrics.NewDownloads()
		if err := m.metrics.Register(opts.Registerer); err != nil {
			return nil, fmt.Errorf("geomap: register metrics: %w", err)
		}
	}

	return m, nil
}

// Width returns the image width in pixels.
func (m *Map) Width() int { return m.opts.Width }

// Height returns the image height in pixels.
func (m *Map) Height() int { return m.opts.Height }

// Viewport returns the viewport of the image centered on center at scale.
func (m *Map) Viewport(center Coordinates, scale int64) Viewport {
	return Viewport{Center: center, Scale: scale, Width: m.opts.Width, Height: m.opts.Height}
}

// URL returns the provider request for the image centered on center at scale.
func (m *Map) URL(center Coordinates, scale int64) string {
	return BuildURL(m.opts.BaseURL, m.opts.APIKey, m.opts.Width, m.opts.Height, scale, center)
}

// Download fetches the image centered on center at scale and stores it
// under Filename(center, scale). fn may be nil.
//
// The returned Result carries the Viewport to use with the transforms. On
// ErrPartialTransfer both a Result and the error are returned.
func (m *Map) Download(ctx context.Context, center Coordinates, scale int64, fn ProgressFunc) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sink progress.Sink
	if fn != nil {
		sink = progress.Func(fn)
	}

	url := m.URL(center, scale)
	name := Filename(center, scale)

	res, err := downloader.Download(ctx, url, m.bucket, name, downloader.Options{
		ChunkSize:      m.opts.ChunkSize,
		Progress:       sink,
		SkipIfExists:   m.opts.SkipIfExists,
		Prober:         m.prober,
		ConnectTimeout: m.opts.ConnectTimeout,
		Client:         m.client,
		ContentType:    "image/jpeg",
		Logger:         m.log,
		Metrics:        m.metrics,
	})

	out := &Result{
		Viewport: m.Viewport(center, scale),
		URL:      url,
		Filename: name,
		Bytes:    res.Written,
		Total:    res.Total,
		Skipped:  res.Skipped,
	}
	return out, err
}

// Open returns a reader for a stored image. Callers must close it.
func (m *Map) Open(ctx context.Context, filename string) (*blob.Reader, error) {
	if _, _, err := ParseFilename(filename); err != nil {
		return nil, err
	}

	r, err := m.bucket.NewReader(ctx, filename, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrMapNotFound, filename)
		}
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	return r, nil
}
