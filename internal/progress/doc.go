// Package progress provides progress reporting for map downloads.
//
// Producers report through the [Sink] interface. [Nop] is the null object
// used when the caller does not care about progress, and [Func] adapts a
// plain callback. [Reporter] is a Sink that prints human-readable lines.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    SourceURL: url,
//	    Output:    os.Stderr,
//	})
//	defer reporter.Finish()
//
//	reporter.Report("map52.500000_13.400000_100000.jpg", 128, 4096)
//
// # Output Format
//
//	[geomap] Downloading: http://open.mapquestapi.com/staticmap/v4/getmap?...
//	[geomap] Target: map52.500000_13.400000_100000.jpg | Size: 41.23 KB
//	[geomap] Progress: 45.2% | 18.63 KB / 41.23 KB | Speed: 12.10 KB/s | ETA: 2s
//	[geomap] Wrote 41.23 KB to map52.500000_13.400000_100000.jpg | Total time: 3s | Average speed: 13.74 KB/s
package progress
