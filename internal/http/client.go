package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Common errors.
var (
	ErrNotFound     = errors.New("http: resource not found")
	ErrForbidden    = errors.New("http: access forbidden")
	ErrUnauthorized = errors.New("http: unauthorized")
	ErrServerError  = errors.New("http: server error")
)

// StatusError reports a non-success HTTP status. It wraps one of the common
// errors when the status has a dedicated one.
type StatusError struct {
	Code   int
	Status string
	err    error
}

func (e *StatusError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%v: %s", e.err, e.Status)
	}
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

func (e *StatusError) Unwrap() error { return e.err }

// Options configures the HTTP client.
type Options struct {
	// Timeout bounds the whole request, body included.
	// Default: 60s
	Timeout time.Duration

	// DialTimeout bounds TCP connection setup.
	// Default: 10s
	DialTimeout time.Duration

	// UserAgent is sent with every request.
	// Default: "geomap"
	UserAgent string

	// Transport overrides the round tripper, mostly for tests.
	Transport http.RoundTripper
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:     60 * time.Second,
		DialTimeout: 10 * time.Second,
		UserAgent:   "geomap",
	}
}

// Response is a streaming response. Callers must close Body.
type Response struct {
	Body       io.ReadCloser
	StatusCode int
	Status     string

	// ContentLength is -1 when the server did not send a length.
	ContentLength int64
	ContentType   string
}

// Client is an HTTP client for fetching static map images.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: opts.DialTimeout}).DialContext,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  true, // We want the raw image bytes
		}
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// Get issues a GET request and returns the response without reading the
// body. Any status code is returned as a Response; only transport level
// failures produce an error.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", req.URL.Redacted(), err)
	}

	return &Response{
		Body:          resp.Body,
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}, nil
}

// CheckStatus returns nil for 200 OK and a *StatusError otherwise.
func CheckStatus(code int, status string) error {
	if code == http.StatusOK {
		return nil
	}
	if status == "" {
		status = fmt.Sprintf("%d %s", code, http.StatusText(code))
	}
	return &StatusError{Code: code, Status: status, err: classify(code)}
}

// classify returns the common error for a status code, or nil.
func classify(code int) error {
	switch {
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return ErrServerError
	default:
		return nil
	}
}
