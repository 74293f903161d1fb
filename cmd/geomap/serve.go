package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ligustah/geomap/internal/logger"
	"github.com/ligustah/geomap/internal/metrics"
	"github.com/ligustah/geomap/internal/server"
)

// runServe exposes fetch, stored maps and the conversions over HTTP until
// interrupted.
func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := newConfigFlags(fs)

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: geomap serve [options]

Serve the map API:
  POST /v1/maps?lat=&lon=&scale=
  GET  /v1/maps/{name}
  GET  /v1/pixel?lat=&lon=&center_lat=&center_lon=&scale=
  GET  /v1/coordinates?x=&y=&center_lat=&center_lon=&scale=
  GET  /healthz, /metrics

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
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
		log.Error("Opening bucket failed", zap.String("bucket", cfg.Bucket), zap.Error(err))
		return ExitStorageError
	}
	defer bkt.Close()

	provider := metrics.Init()
	m, err := openMap(bkt, cfg, log, provider.Registerer())
	if err != nil {
		log.Error("Creating map failed", zap.Error(err))
		return ExitInvalidArgs
	}

	h := server.NewHandler(m, server.Options{
		Metrics: provider.Handler(),
		Logger:  log,
	})
	if err := server.Run(ctx, cfg.ListenAddr, h, log); err != nil {
		log.Error("HTTP server failed", zap.Error(err))
		return ExitGeneralError
	}
	return ExitSuccess
}
