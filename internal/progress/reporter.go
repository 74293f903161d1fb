package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is the minimum time between two progress lines.
	// Default: 500ms
	UpdateInterval time.Duration

	// SourceURL is the URL being downloaded (for display).
	SourceURL string
}

// Reporter outputs human-readable progress information. It implements Sink.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	started    bool
	finished   bool
	filename   string
	done       int64
	total      int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	now        func() time.Time
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:  opts,
		total: -1,
		now:   time.Now,
	}
}

// Report records a progress update and prints a line when the update
// interval has elapsed or the transfer reached its announced size.
func (r *Reporter) Report(filename string, done, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.started {
		r.started = true
		r.startTime = now
		r.lastUpdate = now
		r.filename = filename

		fmt.Fprintf(r.opts.Output, "[geomap] Downloading: %s\n", r.opts.SourceURL)
		fmt.Fprintf(r.opts.Output, "[geomap] Target: %s | Size: %s\n", filename, formatTotal(total))
	}

	r.done = done
	r.total = total

	if now.Sub(r.lastUpdate) < r.opts.UpdateInterval && (total < 0 || done < total) {
		return
	}
	r.printProgress(now)
}

// Finish prints the final status line. It is safe to call more than once.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || r.finished {
		return
	}
	r.finished = true
	r.printFinalStatus(r.now())
}

// printProgress outputs the current progress. Callers hold r.mu.
func (r *Reporter) printProgress(now time.Time) {
	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(r.done-r.lastBytes) / elapsed

	r.lastUpdate = now
	r.lastBytes = r.done

	if r.total <= 0 {
		fmt.Fprintf(r.opts.Output, "[geomap] Progress: %s | Speed: %s/s\n",
			formatBytes(r.done),
			formatBytes(int64(speed)),
		)
		return
	}

	percent := float64(r.done) / float64(r.total) * 100
	eta := "calculating..."
	if speed > 0 {
		remaining := float64(r.total - r.done)
		eta = formatDuration(time.Duration(remaining / speed * float64(time.Second)))
	}

	fmt.Fprintf(r.opts.Output, "[geomap] Progress: %.1f%% | %s / %s | Speed: %s/s | ETA: %s\n",
		percent,
		formatBytes(r.done),
		formatBytes(r.total),
		formatBytes(int64(speed)),
		eta,
	)
}

// printFinalStatus outputs the final status. Callers hold r.mu.
func (r *Reporter) printFinalStatus(now time.Time) {
	duration := now.Sub(r.startTime)
	secs := duration.Seconds()
	if secs <= 0 {
		secs = 1
	}
	avgSpeed := float64(r.done) / secs

	fmt.Fprintf(r.opts.Output, "[geomap] Wrote %s to %s | Total time: %s | Average speed: %s/s\n",
		formatBytes(r.done),
		r.filename,
		formatDuration(duration),
		formatBytes(int64(avgSpeed)),
	)
}

func formatTotal(total int64) string {
	if total < 0 {
		return "unknown"
	}
	return formatBytes(total)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// ParseBytes parses a human-readable byte string (e.g., "128B", "4KB").
// The whole input must be a non-negative number with an optional unit.
func ParseBytes(s string) (int64, error) {
	num := strings.TrimSpace(s)
	var multiplier int64 = 1

	for _, u := range []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	} {
		if rest, ok := strings.CutSuffix(num, u.suffix); ok {
			num, multiplier = strings.TrimSpace(rest), u.mult
			break
		}
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil || value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("invalid byte string: %q", s)
	}

	return int64(value * float64(multiplier)), nil
}
