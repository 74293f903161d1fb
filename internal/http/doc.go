// Package http provides the HTTP client used to fetch static map images.
//
// This package handles:
//   - Dial and whole-request timeouts
//   - A fixed User-Agent
//   - Streaming responses (the body is never buffered)
//   - Status classification into common errors
//
// Requests are never retried.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	resp, err := client.Get(ctx, url)
//	if err != nil {
//	    // transport failure, nothing was received
//	}
//	defer resp.Body.Close()
//
//	if err := http.CheckStatus(resp.StatusCode, resp.Status); err != nil {
//	    // errors.Is(err, http.ErrNotFound), ...
//	}
package http
