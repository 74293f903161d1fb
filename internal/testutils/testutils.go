// Package testutils provides a fake static map provider and storage helpers
// shared by tests.
package testutils

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

// MapPath is the request path served by MapServer.
const MapPath = "/staticmap/v4/getmap"

// GenerateTestData generates size bytes of deterministic image stand-in data.
func GenerateTestData(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

// MapResponse describes what the fake provider answers.
type MapResponse struct {
	// Status defaults to 200.
	Status int

	// Data is the response body.
	Data []byte

	// Chunked omits Content-Length so the client sees an unknown size.
	Chunked bool

	// CutAfter, when positive, announces len(Data) bytes but closes the
	// connection after sending this many.
	CutAfter int

	// ChunkDelay is slept between 128 byte writes to make the stream slow.
	ChunkDelay time.Duration
}

// MapServer is an httptest server impersonating the static map provider.
type MapServer struct {
	*httptest.Server

	mu       sync.Mutex
	resp     MapResponse
	requests []*http.Request
}

// StartMapServer starts a fake provider answering with resp. The server is
// closed when the test ends.
func StartMapServer(t *testing.T, resp MapResponse) *MapServer {
	t.Helper()

	s := &MapServer{resp: resp}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// SetResponse replaces the configured response.
func (s *MapServer) SetResponse(resp MapResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resp = resp
}

// Requests returns the requests received so far.
func (s *MapServer) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

func (s *MapServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(context.Background()))
	resp := s.resp
	s.mu.Unlock()

	if r.URL.Path != MapPath {
		http.NotFound(w, r)
		return
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	if resp.CutAfter > 0 {
		cutConnection(w, resp)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if !resp.Chunked {
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Data)))
	}
	w.WriteHeader(status)

	flusher, _ := w.(http.Flusher)
	for off := 0; off < len(resp.Data); off += 128 {
		end := min(off+128, len(resp.Data))
		if _, err := w.Write(resp.Data[off:end]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if resp.ChunkDelay > 0 {
			time.Sleep(resp.ChunkDelay)
		}
	}
}

// cutConnection writes a raw response announcing the full length, sends
// only CutAfter bytes and drops the connection.
func cutConnection(w http.ResponseWriter, resp MapResponse) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	conn, buf, err := hj.Hijack()
	if err != nil {
		return
	}
	defer conn.Close()

	writeRaw(buf, len(resp.Data), resp.Data[:min(resp.CutAfter, len(resp.Data))])
}

func writeRaw(buf *bufio.ReadWriter, declared int, body []byte) {
	fmt.Fprintf(buf, "HTTP/1.1 200 OK\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\nConnection: close\r\n\r\n", declared)
	buf.Write(body)
	buf.Flush()
}

// OpenMemBucket opens an in-memory bucket closed at the end of the test.
func OpenMemBucket(t *testing.T) *blob.Bucket {
	t.Helper()

	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })
	return bucket
}
