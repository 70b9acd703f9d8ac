package lockfile

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lockview/lockview/pkg/errors"
)

// SupportedVersion is the lockfile format version this package reads.
const SupportedVersion = 1

// KnownRevision is the newest format revision this package fully
// understands. Later revisions still parse; Validate reports an advisory.
const KnownRevision = 3

// DefaultFilename is the conventional lockfile name.
const DefaultFilename = "uv.lock"

// Lockfile is a parsed lockfile document.
type Lockfile struct {
	Version           int       `toml:"version"`
	Revision          int       `toml:"revision"`
	RequiresPython    string    `toml:"requires-python"`
	ResolutionMarkers []string  `toml:"resolution-markers"`
	Options           Options   `toml:"options"`
	Manifest          Manifest  `toml:"manifest"`
	Packages          []Package `toml:"package"`
}

// Options records resolver settings that shaped the lockfile.
type Options struct {
	ExcludeNewer string `toml:"exclude-newer"`
	Prerelease   string `toml:"prerelease-mode"`
}

// Manifest describes the workspace the lockfile was resolved for.
type Manifest struct {
	Members []string `toml:"members"`
}

// Package is a single locked package record.
type Package struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Source  Source `toml:"source"`
	// ResolutionMarkers is set on multi-version forks: each record
	// carries the environment markers under which it was resolved.
	ResolutionMarkers []string                `toml:"resolution-markers"`
	Dependencies      []Dependency            `toml:"dependencies"`
	OptionalDeps      map[string][]Dependency `toml:"optional-dependencies"`
	DevDeps           map[string][]Dependency `toml:"dev-dependencies"`
	Sdist             *Artifact               `toml:"sdist"`
	Wheels            []Artifact              `toml:"wheels"`
	Metadata          Metadata                `toml:"metadata"`
}

// Dependency is a reference from one locked package to another.
type Dependency struct {
	Name   string   `toml:"name"`
	Extras []string `toml:"extra"`
	Marker string   `toml:"marker"`
}

// Metadata carries the declared (unlocked) requirements of a package.
type Metadata struct {
	RequiresDist []Requirement            `toml:"requires-dist"`
	RequiresDev  map[string][]Requirement `toml:"requires-dev"`
}

// Requirement is a declared dependency with its original specifier.
type Requirement struct {
	Name      string   `toml:"name"`
	Specifier string   `toml:"specifier"`
	Extras    []string `toml:"extras"`
	Marker    string   `toml:"marker"`
	Editable  string   `toml:"editable"`
	URL       string   `toml:"url"`
}

// Artifact is a downloadable (or local) distribution file with its
// recorded content hash and size.
type Artifact struct {
	URL        string `toml:"url"`
	Path       string `toml:"path"`
	Hash       Hash   `toml:"hash"`
	Size       int64  `toml:"size"`
	UploadTime string `toml:"upload-time"`
}

// Filename returns the artifact's file name, from its URL or path.
func (a *Artifact) Filename() string {
	if a.Path != "" {
		return filepath.Base(a.Path)
	}
	if a.URL == "" {
		return ""
	}
	name := a.URL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// IsWheel reports whether the artifact is a built distribution.
func (a *Artifact) IsWheel() bool {
	return strings.HasSuffix(a.Filename(), ".whl")
}

// Parse parses lockfile TOML. It rejects unsupported format versions but
// tolerates unknown keys and newer revisions, leaving advisory reporting
// to [Lockfile.Validate].
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err, "parse lockfile")
	}
	if lf.Version != SupportedVersion {
		return nil, errors.New(errors.ErrCodeUnsupportedVersion, "unsupported lockfile version: %d (supported: %d)", lf.Version, SupportedVersion)
	}
	return &lf, nil
}

// Load reads and parses the lockfile at path.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeLockfileNotFound, "no lockfile at %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	return Parse(data)
}

// Find walks from dir toward the filesystem root looking for a lockfile,
// returning its path.
func Find(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", dir)
	}
	for {
		candidate := filepath.Join(current, DefaultFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.New(errors.ErrCodeLockfileNotFound, "no %s found in %s or any parent", DefaultFilename, dir)
		}
		current = parent
	}
}

// Package returns the package record for name (normalized), if present.
// When several entries share a name (multi-version forks), the first is
// returned; use [Lockfile.PackageVersions] for all of them.
func (lf *Lockfile) Package(name string) (*Package, bool) {
	name = NormalizeName(name)
	for i := range lf.Packages {
		if NormalizeName(lf.Packages[i].Name) == name {
			return &lf.Packages[i], true
		}
	}
	return nil, false
}

// PackageVersions returns every record for name (normalized).
func (lf *Lockfile) PackageVersions(name string) []*Package {
	name = NormalizeName(name)
	var pkgs []*Package
	for i := range lf.Packages {
		if NormalizeName(lf.Packages[i].Name) == name {
			pkgs = append(pkgs, &lf.Packages[i])
		}
	}
	return pkgs
}

// ArtifactCount returns the total number of artifact records.
func (lf *Lockfile) ArtifactCount() int {
	n := 0
	for i := range lf.Packages {
		if lf.Packages[i].Sdist != nil {
			n++
		}
		n += len(lf.Packages[i].Wheels)
	}
	return n
}

// Artifacts returns the package's artifact records, sdist first.
func (p *Package) Artifacts() []Artifact {
	var out []Artifact
	if p.Sdist != nil {
		out = append(out, *p.Sdist)
	}
	return append(out, p.Wheels...)
}

var normalizeRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a package name to its canonical form: lowercase,
// with runs of "-", "_" and "." collapsed to a single "-" (PEP 503).
func NormalizeName(name string) string {
	return normalizeRE.ReplaceAllString(strings.ToLower(name), "-")
}
