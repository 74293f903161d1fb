package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/geomap/internal/config"
	"github.com/ligustah/geomap/internal/progress"
	"github.com/ligustah/geomap/pkg/geomap"
)

// configFlags registers the flags shared by all commands. Flags that are set
// on the command line override the config file and the environment.
type configFlags struct {
	fs         *flag.FlagSet
	configPath string
	envFile    string
}

func newConfigFlags(fs *flag.FlagSet) *configFlags {
	cf := &configFlags{fs: fs}

	fs.StringVar(&cf.configPath, "config", "", "YAML config file")
	fs.StringVar(&cf.envFile, "env-file", "", "Load GEOMAP_* variables from this .env file")
	fs.String("api-key", "", "Provider API key")
	fs.String("base-url", "", "Provider base URL")
	fs.Int("width", 0, "Image width in pixels")
	fs.Int("height", 0, "Image height in pixels")
	fs.String("bucket", "", "Storage bucket URL or local directory")
	fs.String("chunk-size", "", "Streaming chunk size, e.g. 128B or 4KB")
	fs.Bool("skip-if-exists", false, "Do not download maps that are already stored")
	fs.Duration("connect-timeout", 0, "How long to wait for the network")
	fs.Duration("request-timeout", 0, "Timeout for one provider request")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("listen", "", "Listen address for serve")
	fs.Bool("progress", true, "Show progress output")

	return cf
}

// load resolves the configuration: defaults, then the file, then the
// environment, then flags.
func (cf *configFlags) load() (config.Config, error) {
	cfg := config.Default()
	if cf.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(cf.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if cf.envFile != "" {
		if err := config.LoadDotEnv(cf.envFile); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	o, err := cf.overrides()
	if err != nil {
		return config.Config{}, err
	}
	return cfg.Merge(o), nil
}

// overrides collects the flags set on the command line.
func (cf *configFlags) overrides() (config.Overrides, error) {
	var o config.Overrides
	var err error
	cf.fs.Visit(func(f *flag.Flag) {
		getter, ok := f.Value.(flag.Getter)
		if !ok || err != nil {
			return
		}
		switch v := getter.Get(); f.Name {
		case "api-key":
			o.APIKey = ptr(v.(string))
		case "base-url":
			o.BaseURL = ptr(v.(string))
		case "width":
			o.Width = ptr(v.(int))
		case "height":
			o.Height = ptr(v.(int))
		case "bucket":
			o.Bucket = ptr(v.(string))
		case "chunk-size":
			size, perr := progress.ParseBytes(v.(string))
			if perr != nil {
				err = fmt.Errorf("invalid chunk size: %w", perr)
				return
			}
			o.ChunkSize = &size
		case "skip-if-exists":
			o.SkipIfExists = ptr(v.(bool))
		case "connect-timeout":
			o.ConnectTimeout = ptr(v.(time.Duration))
		case "request-timeout":
			o.RequestTimeout = ptr(v.(time.Duration))
		case "log-level":
			o.LogLevel = ptr(v.(string))
		case "listen":
			o.ListenAddr = ptr(v.(string))
		case "progress":
			o.Progress = ptr(v.(bool))
		}
	})
	return o, err
}

func ptr[T any](v T) *T { return &v }

// openBucket opens a gocloud bucket URL (file://, mem://, s3://, gs://), or a
// local directory when s has no scheme.
func openBucket(ctx context.Context, s string) (*blob.Bucket, error) {
	if strings.Contains(s, "://") {
		return blob.OpenBucket(ctx, s)
	}
	dir, err := filepath.Abs(s)
	if err != nil {
		return nil, err
	}
	return fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
}

func openMap(bucket *blob.Bucket, cfg config.Config, log *zap.Logger, reg prometheus.Registerer) (*geomap.Map, error) {
	return geomap.New(bucket, geomap.Options{
		APIKey:         cfg.APIKey,
		Width:          cfg.Width,
		Height:         cfg.Height,
		BaseURL:        cfg.BaseURL,
		SkipIfExists:   cfg.SkipIfExists,
		ChunkSize:      int(cfg.ChunkSize),
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
		Registerer:     reg,
	})
}

// exitCode maps a download error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, geomap.ErrConnectionUnavailable):
		return ExitConnection
	case errors.Is(err, geomap.ErrRequestFailed), errors.Is(err, geomap.ErrUnexpectedStatus):
		return ExitSourceNotAccess
	case errors.Is(err, geomap.ErrFileOpenFailure), errors.Is(err, geomap.ErrWriteFailure):
		return ExitStorageError
	case errors.Is(err, geomap.ErrPartialTransfer):
		return ExitPartialTransfer
	default:
		return ExitGeneralError
	}
}

// requireFlags reports the names of required flags that were not set.
func requireFlags(fs *flag.FlagSet, names ...string) []string {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var missing []string
	for _, n := range names {
		if !set[n] {
			missing = append(missing, "-"+n)
		}
	}
	return missing
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
