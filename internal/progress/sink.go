package progress

// Sink receives progress updates for a single file transfer.
//
// done is the number of bytes written so far. total is the expected size in
// bytes, or -1 when the server did not announce a length.
type Sink interface {
	Report(filename string, done, total int64)
}

// Func adapts a plain function to the Sink interface.
type Func func(filename string, done, total int64)

// Report calls f.
func (f Func) Report(filename string, done, total int64) {
	f(filename, done, total)
}

type nopSink struct{}

func (nopSink) Report(string, int64, int64) {}

// Nop is a Sink that discards all updates.
var Nop Sink = nopSink{}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

// Multi fans a single update out to several sinks. Nil entries are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multiSink []Sink

func (m multiSink) Report(filename string, done, total int64) {
	for _, s := range m {
		s.Report(filename, done, total)
	}
}
