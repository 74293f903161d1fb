// Package metrics exposes Prometheus metrics for map downloads.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Download outcomes used as the "outcome" label.
const (
	OutcomeOK                    = "ok"
	OutcomeSkipped               = "skipped"
	OutcomeConnectionUnavailable = "connection_unavailable"
	OutcomeRequestFailed         = "request_failed"
	OutcomeUnexpectedStatus      = "unexpected_status"
	OutcomeFileOpenFailure       = "file_open_failure"
	OutcomeWriteFailure          = "write_failure"
	OutcomePartialTransfer       = "partial_transfer"
)

type Provider struct {
	reg *prometheus.Registry
}

// Init creates a registry with the Go and process collectors.
func Init() *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{reg: reg}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Downloads groups the collectors updated by the downloader. A nil
// *Downloads is valid and records nothing.
type Downloads struct {
	Total    *prometheus.CounterVec
	Bytes    prometheus.Counter
	Duration prometheus.Histogram
	Status   *prometheus.CounterVec
}

func NewDownloads() *Downloads {
	return &Downloads{
		Total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geomap_downloads_total",
				Help: "Map downloads by outcome.",
			},
			[]string{"outcome"},
		),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geomap_download_bytes_total",
			Help: "Bytes written to storage by map downloads.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geomap_download_duration_seconds",
			Help:    "Wall time of map downloads, connection wait included.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		Status: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geomap_provider_responses_total",
				Help: "Provider HTTP responses by status code.",
			},
			[]string{"code"},
		),
	}
}

// Register registers all collectors, stopping at the first error.
func (d *Downloads) Register(r prometheus.Registerer) error {
	for _, c := range d.collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Downloads) collectors() []prometheus.Collector {
	return []prometheus.Collector{d.Total, d.Bytes, d.Duration, d.Status}
}

// Observe records one finished download.
func (d *Downloads) Observe(outcome string, written int64, elapsed time.Duration) {
	if d == nil {
		return
	}
	d.Total.WithLabelValues(outcome).Inc()
	if written > 0 {
		d.Bytes.Add(float64(written))
	}
	d.Duration.Observe(elapsed.Seconds())
}

// ObserveStatus records a provider response status code.
func (d *Downloads) ObserveStatus(code int) {
	if d == nil {
		return
	}
	d.Status.WithLabelValues(strconv.Itoa(code)).Inc()
}
