package pypi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lockview/lockview/pkg/cache"
	"github.com/lockview/lockview/pkg/integrations"
)

const releaseJSON = `{
  "info": {"name": "msgspec", "version": "0.19.0", "yanked": false},
  "urls": [
    {
      "filename": "msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.manylinux2014_x86_64.whl",
      "url": "https://files.pythonhosted.org/packages/w1/msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.manylinux2014_x86_64.whl",
      "size": 210647,
      "yanked": false,
      "digests": {"sha256": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}
    },
    {
      "filename": "msgspec-0.19.0.tar.gz",
      "url": "https://files.pythonhosted.org/packages/src/msgspec-0.19.0.tar.gz",
      "size": 216934,
      "yanked": false,
      "digests": {"sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
    }
  ]
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/msgspec/0.19.0/json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(releaseJSON))
	})
	mux.HandleFunc("/pypi/msgspec/json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(releaseJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRelease(t *testing.T) {
	srv := testServer(t)
	c := NewClientWithBaseURL(cache.NewNullCache(), time.Hour, srv.URL+"/pypi")

	rel, err := c.FetchRelease(context.Background(), "MsgSpec", "0.19.0", false)
	if err != nil {
		t.Fatal(err)
	}
	if rel.Name != "msgspec" || rel.Version != "0.19.0" {
		t.Errorf("release = %s %s", rel.Name, rel.Version)
	}
	if len(rel.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(rel.Files))
	}
	if rel.Files[1].SHA256 != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("sdist sha256 = %q", rel.Files[1].SHA256)
	}
	if rel.Yanked {
		t.Error("release should not be yanked")
	}
}

func TestFetchRelease_NotFound(t *testing.T) {
	srv := testServer(t)
	c := NewClientWithBaseURL(nil, time.Hour, srv.URL+"/pypi")

	_, err := c.FetchRelease(context.Background(), "ghost", "1.0.0", false)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchLatest_UsesCache(t *testing.T) {
	srv := testServer(t)
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()
	c := NewClientWithBaseURL(backend, time.Hour, srv.URL+"/pypi")

	ctx := context.Background()
	if _, err := c.FetchLatest(ctx, "msgspec", false); err != nil {
		t.Fatal(err)
	}

	// Second call must be served from cache even with the server gone.
	srv.Close()
	rel, err := c.FetchLatest(ctx, "msgspec", false)
	if err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if rel.Version != "0.19.0" {
		t.Errorf("Version = %q", rel.Version)
	}
}
