package downloader

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gocloud.dev/blob"

	geohttp "github.com/ligustah/geomap/internal/http"
	"github.com/ligustah/geomap/internal/logger"
	"github.com/ligustah/geomap/internal/metrics"
	"github.com/ligustah/geomap/internal/network"
	"github.com/ligustah/geomap/internal/progress"
)

const (
	// DefaultChunkSize is the read buffer size used when Options.ChunkSize
	// is not set.
	DefaultChunkSize = 128

	// DefaultConnectTimeout bounds the wait for a usable network.
	DefaultConnectTimeout = 30 * time.Second
)

// Options configures the downloader.
type Options struct {
	// ChunkSize is the maximum number of bytes read and written per step.
	// Progress is reported once per chunk.
	ChunkSize int

	// Progress receives (filename, bytesSoFar, total) updates. Optional.
	Progress progress.Sink

	// SkipIfExists returns early with Result.Skipped when the target object
	// already exists. When false an existing object is only logged and then
	// overwritten.
	SkipIfExists bool

	// Prober decides whether the network is up.
	// Default: network.Always
	Prober network.Prober

	// ConnectTimeout bounds the wait for Prober. A negative value probes
	// once without waiting.
	// Default: 30s
	ConnectTimeout time.Duration

	// ProbeInterval is the delay between two probes.
	// Default: 250ms
	ProbeInterval time.Duration

	// Client performs the request. Nil builds one from HTTPOptions.
	Client *geohttp.Client

	// HTTPOptions configures the client built when Client is nil.
	HTTPOptions geohttp.Options

	// ContentType is stored with the object.
	// Default: the response Content-Type, else "image/jpeg"
	ContentType string

	// Logger receives diagnostic output. Optional.
	Logger *zap.Logger

	// Metrics records outcomes. Optional.
	Metrics *metrics.Downloads
}

// Result describes a finished download. It is returned alongside
// ErrPartialTransfer so callers can see how much arrived.
type Result struct {
	URL      string
	Filename string
	Written  int64 // Bytes written to the object
	Total    int64 // Announced length, -1 when unknown
	Skipped  bool  // The object existed and SkipIfExists was set
}

// Download streams url into the object filename of bucket.
//
// Nothing is written unless the provider answers 200 OK. The object is
// opened with overwrite semantics, and the response body and writer are
// closed on every path. A stream that ends early leaves the truncated object
// in place and returns ErrPartialTransfer together with the Result.
func Download(ctx context.Context, url string, bucket *blob.Bucket, filename string, opts Options) (*Result, error) {
	// Apply defaults
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	switch {
	case opts.ConnectTimeout == 0:
		opts.ConnectTimeout = DefaultConnectTimeout
	case opts.ConnectTimeout < 0:
		opts.ConnectTimeout = 0
	}
	if opts.Prober == nil {
		opts.Prober = network.Always
	}
	if opts.Client == nil {
		opts.Client = geohttp.NewClient(opts.HTTPOptions)
	}
	opts.Progress = progress.OrNop(opts.Progress)
	opts.Logger = logger.OrNop(opts.Logger)

	start := time.Now()
	res, err := download(ctx, url, bucket, filename, opts)
	opts.Metrics.Observe(outcome(res, err), res.Written, time.Since(start))
	return res, err
}

func download(ctx context.Context, url string, bucket *blob.Bucket, filename string, opts Options) (*Result, error) {
	log := opts.Logger.With(zap.String("url", url), zap.String("filename", filename))
	res := &Result{URL: url, Filename: filename, Total: -1}
	fail := func(kind error, status int, err error) (*Result, error) {
		return res, &Error{
			Kind:       kind,
			URL:        url,
			Filename:   filename,
			StatusCode: status,
			Written:    res.Written,
			Total:      res.Total,
			Err:        err,
		}
	}

	log.Info("Downloading map")

	exists, err := bucket.Exists(ctx, filename)
	switch {
	case err != nil:
		log.Warn("Existence check failed", zap.Error(err))
	case exists && opts.SkipIfExists:
		log.Info("File already exists, skipping")
		res.Skipped = true
		return res, nil
	case exists:
		log.Info("File already exists, downloading again")
	}

	if err := network.WaitConnected(ctx, opts.Prober, opts.ConnectTimeout, opts.ProbeInterval); err != nil {
		log.Error("Network not connected", zap.Duration("timeout", opts.ConnectTimeout), zap.Error(err))
		return fail(ErrConnectionUnavailable, 0, err)
	}

	log.Debug("Sending request")
	resp, err := opts.Client.Get(ctx, url)
	if err != nil {
		log.Error("Request failed", zap.Error(err))
		return fail(ErrRequestFailed, 0, err)
	}
	defer resp.Body.Close()

	opts.Metrics.ObserveStatus(resp.StatusCode)
	if err := geohttp.CheckStatus(resp.StatusCode, resp.Status); err != nil {
		log.Error("Provider returned error", zap.Int("status_code", resp.StatusCode), zap.String("status", resp.Status))
		return fail(ErrUnexpectedStatus, resp.StatusCode, err)
	}
	res.Total = resp.ContentLength

	contentType := opts.ContentType
	if contentType == "" {
		contentType = resp.ContentType
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	// Whatever arrived before a cancellation is still committed.
	w, err := bucket.NewWriter(context.WithoutCancel(ctx), filename, &blob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Error("File open failed", zap.Error(err))
		return fail(ErrFileOpenFailure, resp.StatusCode, err)
	}

	log.Debug("Streaming response", zap.Int64("content_length", res.Total))
	opts.Progress.Report(filename, 0, res.Total)

	var streamErr, writeErr error
	for chunk, err := range Chunks(resp.Body, opts.ChunkSize) {
		if err != nil {
			streamErr = err
			break
		}
		n, err := w.Write(chunk)
		res.Written += int64(n)
		if err != nil {
			writeErr = err
			break
		}
		opts.Progress.Report(filename, res.Written, res.Total)
	}

	if err := w.Close(); err != nil && writeErr == nil {
		writeErr = err
	}

	switch {
	case writeErr != nil:
		log.Error("Write failed", zap.Int64("written", res.Written), zap.Error(writeErr))
		return fail(ErrWriteFailure, resp.StatusCode, writeErr)
	case streamErr != nil, res.Total >= 0 && res.Written < res.Total:
		log.Warn("Connection closed before end of file",
			zap.Int64("written", res.Written),
			zap.Int64("total", res.Total),
			zap.Error(streamErr))
		return fail(ErrPartialTransfer, resp.StatusCode, streamErr)
	}

	log.Info("Download complete", zap.Int64("bytes", res.Written))
	return res, nil
}

// outcome maps a download result to its metrics label.
func outcome(res *Result, err error) string {
	switch {
	case err == nil && res.Skipped:
		return metrics.OutcomeSkipped
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrConnectionUnavailable):
		return metrics.OutcomeConnectionUnavailable
	case errors.Is(err, ErrRequestFailed):
		return metrics.OutcomeRequestFailed
	case errors.Is(err, ErrUnexpectedStatus):
		return metrics.OutcomeUnexpectedStatus
	case errors.Is(err, ErrFileOpenFailure):
		return metrics.OutcomeFileOpenFailure
	case errors.Is(err, ErrPartialTransfer):
		return metrics.OutcomePartialTransfer
	default:
		return metrics.OutcomeWriteFailure
	}
}
