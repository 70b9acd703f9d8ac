package lockfile

// Source records where a locked package comes from. Exactly one field is
// set in a well-formed record; [Source.Kind] reports which.
type Source struct {
	Registry  string `toml:"registry"`
	Editable  string `toml:"editable"`
	Directory string `toml:"directory"`
	Path      string `toml:"path"`
	Git       string `toml:"git"`
	URL       string `toml:"url"`
	Virtual   string `toml:"virtual"`
}

// SourceKind identifies the variant of a package source.
type SourceKind string

const (
	SourceRegistry  SourceKind = "registry"
	SourceEditable  SourceKind = "editable"
	SourceDirectory SourceKind = "directory"
	SourcePath      SourceKind = "path"
	SourceGit       SourceKind = "git"
	SourceURL       SourceKind = "url"
	SourceVirtual   SourceKind = "virtual"
	SourceUnknown   SourceKind = ""
)

// Kind returns the source variant, or SourceUnknown when no field is set.
func (s Source) Kind() SourceKind {
	switch {
	case s.Registry != "":
		return SourceRegistry
	case s.Editable != "":
		return SourceEditable
	case s.Directory != "":
		return SourceDirectory
	case s.Path != "":
		return SourcePath
	case s.Git != "":
		return SourceGit
	case s.URL != "":
		return SourceURL
	case s.Virtual != "":
		return SourceVirtual
	}
	return SourceUnknown
}

// Value returns the location string of whichever field is set.
func (s Source) Value() string {
	switch s.Kind() {
	case SourceRegistry:
		return s.Registry
	case SourceEditable:
		return s.Editable
	case SourceDirectory:
		return s.Directory
	case SourcePath:
		return s.Path
	case SourceGit:
		return s.Git
	case SourceURL:
		return s.URL
	case SourceVirtual:
		return s.Virtual
	}
	return ""
}

// setCount returns how many source fields are populated. More than one is
// a validation problem.
func (s Source) setCount() int {
	n := 0
	for _, v := range []string{s.Registry, s.Editable, s.Directory, s.Path, s.Git, s.URL, s.Virtual} {
		if v != "" {
			n++
		}
	}
	return n
}

// IsLocal reports whether the package is sourced from the local project
// tree rather than an index or remote URL. Local packages record no
// artifacts and no hashes; there is nothing to download or verify.
func (p *Package) IsLocal() bool {
	switch p.Source.Kind() {
	case SourceEditable, SourceDirectory, SourcePath, SourceVirtual:
		return true
	}
	return false
}
