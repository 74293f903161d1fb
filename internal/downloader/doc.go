// Package downloader streams a single HTTP resource into a storage bucket.
//
// The download waits (bounded) for the network, issues one GET and, on
// 200 OK only, copies the body into the target object chunk by chunk while
// reporting progress. There are no retries and no resume.
//
// # Usage
//
//	res, err := downloader.Download(ctx, url, bucket, "map52.500000_13.400000_100000.jpg", downloader.Options{
//	    ChunkSize:      128,
//	    ConnectTimeout: 30 * time.Second,
//	    Progress:       reporter,
//	    Logger:         log,
//	})
//
// # Errors
//
// Every failure is an [*Error] wrapping one kind:
//   - [ErrConnectionUnavailable]: the network did not come up in time
//   - [ErrRequestFailed]: transport failure, nothing written
//   - [ErrUnexpectedStatus]: non-200 answer, nothing written
//   - [ErrFileOpenFailure]: target object could not be opened
//   - [ErrWriteFailure]: storage rejected a write or the commit
//   - [ErrPartialTransfer]: stream ended early, truncated object kept
package downloader
