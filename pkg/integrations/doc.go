// Package integrations provides shared HTTP plumbing for registry clients.
//
// [Client] bundles the pieces every registry client needs: a timeout-bound
// HTTP client, response caching through a [cache.Cache] backend, retry with
// exponential backoff for transient failures, and default request headers.
//
// Registry-specific clients live in subpackages and embed [Client]:
//
//   - pypi: the PyPI JSON API, used to audit locked packages against the
//     index they were resolved from.
//
// Errors are normalized to two sentinels so callers can branch without
// knowing registry details: [ErrNotFound] for missing resources and
// [ErrNetwork] for transport failures.
package integrations
