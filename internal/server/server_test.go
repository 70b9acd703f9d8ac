package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	charmlog "github.com/charmbracelet/log"

	"github.com/lockview/lockview/pkg/lockfile"
)

const fixture = `version = 1
requires-python = ">=3.9"

[[package]]
name = "msgspec"
version = "0.19.0"
source = { registry = "https://pypi.org/simple" }
sdist = { url = "https://files.pythonhosted.org/packages/src/msgspec-0.19.0.tar.gz", hash = "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", size = 216934 }
wheels = [
    { url = "https://files.pythonhosted.org/packages/w1/msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.manylinux2014_x86_64.whl", hash = "sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", size = 210647 },
    { url = "https://files.pythonhosted.org/packages/w2/msgspec-0.19.0-cp312-cp312-win_amd64.whl", hash = "sha256:cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc", size = 187654 },
]

[[package]]
name = "msgspec-ext"
version = "0.1.0"
source = { editable = "." }
dependencies = [{ name = "msgspec" }]
`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	lf, err := lockfile.Parse([]byte(fixture))
	if err != nil {
		t.Fatal(err)
	}
	logger := charmlog.New(io.Discard)
	srv := httptest.NewServer(New(Config{Addr: ":0"}, lf, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	var out map[string]string
	resp := get(t, srv.URL+"/healthz", &out)
	if resp.StatusCode != http.StatusOK || out["status"] != "ok" {
		t.Errorf("status = %d, body = %v", resp.StatusCode, out)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("response should carry a request ID")
	}
}

func TestAPIRoutesLiveUnderVersionPrefix(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/api/v1/lockfile", "/api/v1/packages", "/api/v1/graph"} {
		if resp := get(t, srv.URL+path, nil); resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
	// Only the health probe lives outside the prefix.
	if resp := get(t, srv.URL+"/lockfile", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /lockfile = %d, want 404", resp.StatusCode)
	}
}

func TestLockfileSummary(t *testing.T) {
	srv := testServer(t)
	var out struct {
		Version   int `json:"version"`
		Packages  int `json:"packages"`
		Artifacts int `json:"artifacts"`
	}
	get(t, srv.URL+"/api/v1/lockfile", &out)
	if out.Version != 1 || out.Packages != 2 || out.Artifacts != 3 {
		t.Errorf("summary = %+v", out)
	}
}

func TestPackages(t *testing.T) {
	srv := testServer(t)
	var out []struct {
		Name   string `json:"name"`
		Source string `json:"source"`
		Local  bool   `json:"local"`
	}
	get(t, srv.URL+"/api/v1/packages", &out)
	if len(out) != 2 {
		t.Fatalf("packages = %d, want 2", len(out))
	}
	if out[0].Name != "msgspec" || out[0].Source != "registry" {
		t.Errorf("first package = %+v", out[0])
	}
	if !out[1].Local {
		t.Errorf("msgspec-ext should be local: %+v", out[1])
	}
}

func TestPackageDetail(t *testing.T) {
	srv := testServer(t)
	var out struct {
		Name   string `json:"name"`
		Sdist  *struct{ Filename string } `json:"sdist"`
		Wheels []struct{ Filename string } `json:"wheels"`
	}
	// Lookup is normalized: MsgSpec resolves to msgspec.
	resp := get(t, srv.URL+"/api/v1/packages/MsgSpec", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out.Name != "msgspec" || out.Sdist == nil || len(out.Wheels) != 2 {
		t.Errorf("detail = %+v", out)
	}
}

func TestPackageDetail_NotFound(t *testing.T) {
	srv := testServer(t)
	var out struct {
		Code string `json:"code"`
	}
	resp := get(t, srv.URL+"/api/v1/packages/ghost", &out)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if out.Code != "PACKAGE_NOT_FOUND" {
		t.Errorf("code = %q", out.Code)
	}
}

func TestArtifactSelection(t *testing.T) {
	srv := testServer(t)
	var out struct {
		Selected *struct {
			Filename string `json:"filename"`
		} `json:"selected"`
		Artifacts []any `json:"artifacts"`
	}
	get(t, srv.URL+"/api/v1/packages/msgspec/artifacts?platform=win32&machine=AMD64&python=3.12", &out)
	if out.Selected == nil || out.Selected.Filename != "msgspec-0.19.0-cp312-cp312-win_amd64.whl" {
		t.Errorf("selected = %+v", out.Selected)
	}
	if len(out.Artifacts) != 3 {
		t.Errorf("artifacts = %d, want 3", len(out.Artifacts))
	}
}

func TestArtifactSelection_FallsBackToSdist(t *testing.T) {
	srv := testServer(t)
	var out struct {
		Selected *struct {
			Filename string `json:"filename"`
			Wheel    bool   `json:"wheel"`
		} `json:"selected"`
	}
	// cp312-only wheels don't run on 3.11.
	get(t, srv.URL+"/api/v1/packages/msgspec/artifacts?platform=linux&python=3.11", &out)
	if out.Selected == nil || out.Selected.Wheel {
		t.Errorf("selected = %+v, want the sdist", out.Selected)
	}
}

func TestGraph(t *testing.T) {
	srv := testServer(t)
	var out struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Edges []struct {
			From, To string
		} `json:"edges"`
	}
	get(t, srv.URL+"/api/v1/graph", &out)
	if len(out.Nodes) != 2 || len(out.Edges) != 1 {
		t.Errorf("graph = %+v", out)
	}
	if out.Edges[0].From != "msgspec-ext" || out.Edges[0].To != "msgspec" {
		t.Errorf("edge = %+v", out.Edges[0])
	}
}
