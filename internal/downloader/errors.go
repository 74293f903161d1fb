package downloader

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by Download wraps exactly one of these.
var (
	// ErrConnectionUnavailable means the network never became reachable
	// within Options.ConnectTimeout.
	ErrConnectionUnavailable = errors.New("downloader: connection unavailable")

	// ErrRequestFailed means the request failed at the transport level and
	// no response was received.
	ErrRequestFailed = errors.New("downloader: request failed")

	// ErrUnexpectedStatus means the provider answered with a status other
	// than 200 OK.
	ErrUnexpectedStatus = errors.New("downloader: unexpected status")

	// ErrFileOpenFailure means the target object could not be opened for
	// writing.
	ErrFileOpenFailure = errors.New("downloader: file open failed")

	// ErrWriteFailure means writing to or committing the target object
	// failed.
	ErrWriteFailure = errors.New("downloader: write failed")

	// ErrPartialTransfer means the stream ended before the announced length
	// was received. The truncated object is left in storage.
	ErrPartialTransfer = errors.New("downloader: partial transfer")
)

// Error describes a failed download.
//
// Use errors.Is with one of the Err* kinds to classify it, or errors.As to
// inspect the details:
//
//	var derr *downloader.Error
//	if errors.As(err, &derr) && derr.Kind == downloader.ErrUnexpectedStatus {
//	    log.Printf("provider said %d", derr.StatusCode)
//	}
type Error struct {
	Kind       error  // One of the Err* kinds
	URL        string // Requested URL
	Filename   string // Target object
	StatusCode int    // Provider status, 0 when no response was received
	Written    int64  // Bytes written before the failure
	Total      int64  // Announced length, -1 when unknown
	Err        error  // Underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	switch {
	case e.Kind == ErrUnexpectedStatus:
		fmt.Fprintf(&b, ": %d", e.StatusCode)
	case e.Kind == ErrPartialTransfer && e.Total >= 0:
		fmt.Fprintf(&b, ": wrote %d of %d bytes to %s", e.Written, e.Total, e.Filename)
	case e.Kind == ErrPartialTransfer:
		fmt.Fprintf(&b, ": wrote %d bytes to %s", e.Written, e.Filename)
	case e.Filename != "":
		fmt.Fprintf(&b, ": %s", e.Filename)
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
