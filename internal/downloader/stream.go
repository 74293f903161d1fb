package downloader

import (
	"errors"
	"io"
	"iter"
)

// Chunks returns a lazy, finite sequence of chunks read from r, each at most
// size bytes. The sequence ends at io.EOF; any other read error is yielded
// once as the final element. The yielded slice is reused between iterations.
func Chunks(r io.Reader, size int) iter.Seq2[[]byte, error] {
	if size <= 0 {
		size = DefaultChunkSize
	}

	return func(yield func([]byte, error) bool) {
		buf := make([]byte, size)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if !yield(buf[:n], nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}
