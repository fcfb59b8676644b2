// Package httputil fetches remote images for placed images and report
// logos.
//
// # Overview
//
//   - [Fetcher]: GET with a size limit, content-type check and retries
//   - [Cache]: file-based cache of fetched bodies
//   - [Retry]: retry with exponential backoff for transient failures
//
// # Retry
//
// [Retry] only repeats errors wrapped in [RetryableError]. The fetcher
// wraps network errors and 5xx responses; 4xx responses fail at once.
//
//	f := httputil.NewFetcher(cache)
//	data, err := f.Fetch(ctx, "https://example.com/logo.png")
//
// # Caching
//
// Fetched bodies are stored under ~/.cache/flowsankey/images keyed by URL.
// A PNG rendered twice from the same settings downloads each image once.
package httputil
