// Package pypi is a client for the PyPI JSON API.
//
// The client fetches release metadata for locked packages so they can be
// audited against the live index: does the pinned version still exist,
// has it been yanked, and do the artifact digests PyPI serves still match
// the ones recorded at resolution time.
//
// Endpoints used:
//
//	GET /pypi/{name}/json            latest release metadata
//	GET /pypi/{name}/{version}/json  one pinned release with its files
//
// Responses are cached through the configured cache backend; transient
// failures retry with exponential backoff.
package pypi
