package lockfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lockview/lockview/pkg/errors"
)

// Digests are syntactically valid sha256 values; content verification is
// pkg/verify's concern, not the parser's.
const (
	digestA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	digestB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	digestC = "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
	digestD = "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"
	digestE = "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	digestF = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
)

const fixture = `version = 1
revision = 2
requires-python = ">=3.9"
resolution-markers = [
    "python_full_version >= '3.13'",
    "python_full_version < '3.13'",
]

[options]
exclude-newer = "2025-01-01T00:00:00Z"

[[package]]
name = "msgspec"
version = "0.19.0"
source = { registry = "https://pypi.org/simple" }
sdist = { url = "https://files.pythonhosted.org/packages/src/msgspec-0.19.0.tar.gz", hash = "sha256:` + digestA + `", size = 216934 }
wheels = [
    { url = "https://files.pythonhosted.org/packages/w1/msgspec-0.19.0-cp312-cp312-manylinux_2_17_x86_64.manylinux2014_x86_64.whl", hash = "sha256:` + digestB + `", size = 210647 },
    { url = "https://files.pythonhosted.org/packages/w2/msgspec-0.19.0-cp312-cp312-macosx_11_0_arm64.whl", hash = "sha256:` + digestC + `", size = 190485 },
    { url = "https://files.pythonhosted.org/packages/w3/msgspec-0.19.0-cp312-cp312-win_amd64.whl", hash = "sha256:` + digestD + `", size = 187654 },
]

[[package]]
name = "python-dotenv"
version = "1.0.1"
source = { registry = "https://pypi.org/simple" }
sdist = { url = "https://files.pythonhosted.org/packages/src/python_dotenv-1.0.1.tar.gz", hash = "sha256:` + digestE + `", size = 39115 }
wheels = [
    { url = "https://files.pythonhosted.org/packages/w4/python_dotenv-1.0.1-py3-none-any.whl", hash = "sha256:` + digestF + `", size = 19863 },
]

[[package]]
name = "msgspec-ext"
version = "0.1.0"
source = { editable = "." }
dependencies = [
    { name = "msgspec" },
    { name = "python-dotenv" },
]

[package.metadata]
requires-dist = [
    { name = "msgspec", specifier = ">=0.18.0" },
    { name = "python-dotenv", specifier = ">=1.0.0" },
]
`

func parseFixture(t *testing.T) *Lockfile {
	t.Helper()
	lf, err := Parse([]byte(fixture))
	if err != nil {
		t.Fatalf("Parse fixture: %v", err)
	}
	return lf
}

func TestParse(t *testing.T) {
	lf := parseFixture(t)

	if lf.Version != 1 {
		t.Errorf("Version = %d, want 1", lf.Version)
	}
	if lf.Revision != 2 {
		t.Errorf("Revision = %d, want 2", lf.Revision)
	}
	if lf.RequiresPython != ">=3.9" {
		t.Errorf("RequiresPython = %q", lf.RequiresPython)
	}
	if len(lf.ResolutionMarkers) != 2 {
		t.Errorf("ResolutionMarkers = %d, want 2", len(lf.ResolutionMarkers))
	}
	if lf.Options.ExcludeNewer != "2025-01-01T00:00:00Z" {
		t.Errorf("ExcludeNewer = %q", lf.Options.ExcludeNewer)
	}
	if len(lf.Packages) != 3 {
		t.Fatalf("Packages = %d, want 3", len(lf.Packages))
	}

	msgspec := lf.Packages[0]
	if msgspec.Name != "msgspec" || msgspec.Version != "0.19.0" {
		t.Errorf("package[0] = %s %s", msgspec.Name, msgspec.Version)
	}
	if msgspec.Source.Kind() != SourceRegistry {
		t.Errorf("msgspec source kind = %q, want registry", msgspec.Source.Kind())
	}
	if msgspec.Sdist == nil || msgspec.Sdist.Size != 216934 {
		t.Error("msgspec sdist missing or wrong size")
	}
	if len(msgspec.Wheels) != 3 {
		t.Errorf("msgspec wheels = %d, want 3", len(msgspec.Wheels))
	}
	if got := msgspec.Wheels[0].Hash.Algorithm(); got != "sha256" {
		t.Errorf("wheel hash algorithm = %q", got)
	}

	ext := lf.Packages[2]
	if ext.Source.Kind() != SourceEditable || !ext.IsLocal() {
		t.Error("msgspec-ext should be a local editable package")
	}
	if len(ext.Dependencies) != 2 {
		t.Errorf("msgspec-ext dependencies = %d, want 2", len(ext.Dependencies))
	}
	if len(ext.Metadata.RequiresDist) != 2 {
		t.Errorf("requires-dist = %d, want 2", len(ext.Metadata.RequiresDist))
	}
	if ext.Metadata.RequiresDist[0].Specifier != ">=0.18.0" {
		t.Errorf("requires-dist[0].Specifier = %q", ext.Metadata.RequiresDist[0].Specifier)
	}
}

func TestParse_UnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte("version = 2\n"))
	if !errors.Is(err, errors.ErrCodeUnsupportedVersion) {
		t.Errorf("error = %v, want UNSUPPORTED_VERSION", err)
	}

	_, err = Parse([]byte("")) // version missing entirely
	if !errors.Is(err, errors.ErrCodeUnsupportedVersion) {
		t.Errorf("error = %v, want UNSUPPORTED_VERSION", err)
	}
}

func TestParse_MalformedTOML(t *testing.T) {
	_, err := Parse([]byte("version = [broken"))
	if !errors.Is(err, errors.ErrCodeInvalidLockfile) {
		t.Errorf("error = %v, want INVALID_LOCKFILE", err)
	}
}

func TestParse_UnknownKeysTolerated(t *testing.T) {
	data := `version = 1
future-field = "something"

[[package]]
name = "msgspec"
version = "0.19.0"
source = { registry = "https://pypi.org/simple" }
sdist = { url = "https://example.com/msgspec-0.19.0.tar.gz", hash = "sha256:` + digestA + `", size = 1, novel-key = true }
`
	if _, err := Parse([]byte(data)); err != nil {
		t.Errorf("unknown keys should be tolerated: %v", err)
	}
}

func TestLockfile_Package(t *testing.T) {
	lf := parseFixture(t)

	tests := []struct {
		lookup string
		found  bool
	}{
		{"msgspec", true},
		{"MsgSpec", true},       // case-insensitive
		{"python_dotenv", true}, // underscore normalizes to hyphen
		{"python-dotenv", true},
		{"msgspec.ext", true}, // dot normalizes too
		{"requests", false},
	}

	for _, tt := range tests {
		t.Run(tt.lookup, func(t *testing.T) {
			_, ok := lf.Package(tt.lookup)
			if ok != tt.found {
				t.Errorf("Package(%q) found = %v, want %v", tt.lookup, ok, tt.found)
			}
		})
	}
}

func TestLockfile_ArtifactCount(t *testing.T) {
	lf := parseFixture(t)
	// 2 sdists + 4 wheels; the editable package records none.
	if got := lf.ArtifactCount(); got != 6 {
		t.Errorf("ArtifactCount = %d, want 6", got)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "uv.lock"))
	if !errors.Is(err, errors.ErrCodeLockfileNotFound) {
		t.Errorf("error = %v, want LOCKFILE_NOT_FOUND", err)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	lockPath := filepath.Join(root, "uv.lock")
	if err := os.WriteFile(lockPath, []byte(fixture), 0644); err != nil {
		t.Fatal(err)
	}

	found, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found != lockPath {
		t.Errorf("Find = %q, want %q", found, lockPath)
	}
}

func TestFind_Missing(t *testing.T) {
	_, err := Find(t.TempDir())
	if !errors.Is(err, errors.ErrCodeLockfileNotFound) {
		t.Errorf("error = %v, want LOCKFILE_NOT_FOUND", err)
	}
}

func TestArtifact_Filename(t *testing.T) {
	tests := []struct {
		artifact Artifact
		want     string
	}{
		{Artifact{URL: "https://files.pythonhosted.org/packages/w1/msgspec-0.19.0-cp312-cp312-win_amd64.whl"}, "msgspec-0.19.0-cp312-cp312-win_amd64.whl"},
		{Artifact{URL: "https://example.com/pkg.tar.gz?token=abc"}, "pkg.tar.gz"},
		{Artifact{Path: "dist/msgspec_ext-0.1.0.tar.gz"}, "msgspec_ext-0.1.0.tar.gz"},
		{Artifact{}, ""},
	}

	for _, tt := range tests {
		if got := tt.artifact.Filename(); got != tt.want {
			t.Errorf("Filename() = %q, want %q", got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"msgspec", "msgspec"},
		{"Python_Dotenv", "python-dotenv"},
		{"zope.interface", "zope-interface"},
		{"a--b__c..d", "a-b-c-d"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse_EmptyLockfileValid(t *testing.T) {
	lf, err := Parse([]byte("version = 1\n"))
	if err != nil {
		t.Fatalf("empty lockfile should parse: %v", err)
	}
	if len(lf.Packages) != 0 {
		t.Errorf("Packages = %d, want 0", len(lf.Packages))
	}
	if problems := lf.Validate(); len(problems) != 0 {
		t.Errorf("empty lockfile should validate clean, got %d problems", len(problems))
	}
}

func TestParse_CompressedPlatformTags(t *testing.T) {
	lf := parseFixture(t)
	msgspec, _ := lf.Package("msgspec")

	name := msgspec.Wheels[0].Filename()
	if !strings.Contains(name, "manylinux_2_17_x86_64.manylinux2014_x86_64") {
		t.Fatalf("unexpected wheel filename %q", name)
	}
}
