package pypi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lockview/lockview/pkg/cache"
	"github.com/lockview/lockview/pkg/integrations"
)

// Release holds the metadata of one published release of a package.
//
// Names are normalized following PEP 503 (lowercase, underscores→hyphens).
// Files lists every artifact PyPI serves for the release, with the digests
// the index advertises today.
type Release struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Yanked       bool   `json:"yanked"`
	YankedReason string `json:"yanked_reason,omitempty"`
	Files        []File `json:"files"`
}

// File is one downloadable artifact of a release.
type File struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
	Yanked   bool   `json:"yanked"`
}

// Client provides access to the PyPI JSON API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
// Responses are cached under the "pypi:" namespace for cacheTTL.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", cacheTTL, map[string]string{"Accept": "application/json"}),
		baseURL: "https://pypi.org/pypi",
	}
}

// NewClientWithBaseURL creates a client against a different index URL.
// Used for private indexes and in tests.
func NewClientWithBaseURL(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	c := NewClient(backend, cacheTTL)
	c.baseURL = baseURL
	return c
}

// FetchRelease retrieves metadata for one pinned release.
//
// The name is normalized automatically. If refresh is true the cache is
// bypassed. Returns [integrations.ErrNotFound] when the package or the
// version does not exist on the index, and [integrations.ErrNetwork] for
// transport failures.
func (c *Client) FetchRelease(ctx context.Context, name, version string, refresh bool) (*Release, error) {
	name = integrations.NormalizePkgName(name)
	key := name + "@" + version

	var rel Release
	err := c.Cached(ctx, key, refresh, &rel, func() error {
		return c.fetch(ctx, fmt.Sprintf("%s/%s/%s/json", c.baseURL, name, version), &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// FetchLatest retrieves metadata for the latest release of a package.
func (c *Client) FetchLatest(ctx context.Context, name string, refresh bool) (*Release, error) {
	name = integrations.NormalizePkgName(name)

	var rel Release
	err := c.Cached(ctx, name+"@latest", refresh, &rel, func() error {
		return c.fetch(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, name), &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) fetch(ctx context.Context, url string, rel *Release) error {
	var data apiResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: %s", err, url)
		}
		return err
	}

	files := make([]File, 0, len(data.URLs))
	for _, u := range data.URLs {
		files = append(files, File{
			Filename: u.Filename,
			URL:      u.URL,
			SHA256:   u.Digests.SHA256,
			Size:     u.Size,
			Yanked:   u.Yanked,
		})
	}

	*rel = Release{
		Name:         integrations.NormalizePkgName(data.Info.Name),
		Version:      data.Info.Version,
		Yanked:       data.Info.Yanked,
		YankedReason: data.Info.YankedReason,
		Files:        files,
	}
	return nil
}

// apiResponse mirrors the fields of the PyPI JSON API we consume.
type apiResponse struct {
	Info struct {
		Name         string `json:"name"`
		Version      string `json:"version"`
		Yanked       bool   `json:"yanked"`
		YankedReason string `json:"yanked_reason"`
	} `json:"info"`
	URLs []struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
		Size     int64  `json:"size"`
		Yanked   bool   `json:"yanked"`
		Digests  struct {
			SHA256 string `json:"sha256"`
		} `json:"digests"`
	} `json:"urls"`
}
