// Package httputil provides retry support for registry HTTP clients.
//
// [Retry] wraps requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] trigger another attempt, so
// permanent failures (404, malformed responses) return immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchFromPyPI()
//	})
//
// Response caching lives in [github.com/lockview/lockview/pkg/cache];
// clients compose the two.
package httputil
