// Package network answers whether the map provider is reachable and waits,
// for a bounded time, until it is.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ErrTimeout is returned by WaitConnected when the deadline passes before the
// prober reports a connection.
var ErrTimeout = errors.New("network: connection not established before deadline")

// Prober reports whether the network is currently usable.
type Prober interface {
	Connected(ctx context.Context) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context) bool

// Connected calls f.
func (f ProberFunc) Connected(ctx context.Context) bool { return f(ctx) }

// Always is a Prober that is always connected.
var Always Prober = ProberFunc(func(context.Context) bool { return true })

// DialProber considers the network connected when a TCP connection to Addr
// can be opened.
type DialProber struct {
	Addr    string
	Timeout time.Duration
}

// NewDialProber returns a DialProber for the host of rawURL, defaulting the
// port from the scheme.
func NewDialProber(rawURL string) (*DialProber, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	return &DialProber{
		Addr:    net.JoinHostPort(u.Hostname(), port),
		Timeout: 2 * time.Second,
	}, nil
}

// Connected dials Addr and closes the connection straight away.
func (p *DialProber) Connected(ctx context.Context) bool {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WaitConnected polls p every interval until it reports a connection, ctx is
// done or timeout elapses. A zero timeout probes exactly once.
func WaitConnected(ctx context.Context, p Prober, timeout, interval time.Duration) error {
	if p == nil {
		return nil
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	if p.Connected(ctx) {
		return nil
	}
	if timeout <= 0 {
		return ErrTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w (waited %s)", ErrTimeout, timeout)
		case <-ticker.C:
			if p.Connected(ctx) {
				return nil
			}
		}
	}
}
