// Package wheel parses built-distribution filenames and matches their
// compatibility tags against a target environment.
//
// Wheel filenames follow the binary distribution format:
//
//	{distribution}-{version}(-{build})?-{python}-{abi}-{platform}.whl
//
// Each of the three tag fields may be a compressed set joined with ".",
// e.g. "py2.py3-none-any" expands to the py2 and py3 tags.
package wheel

import (
	"strings"

	"github.com/lockview/lockview/pkg/errors"
)

// Filename is a parsed wheel filename.
type Filename struct {
	Distribution string   // distribution name as spelled in the filename
	Version      string   // version as spelled in the filename
	Build        string   // optional build tag, empty if absent
	PythonTags   []string // e.g. ["cp312"] or ["py2", "py3"]
	AbiTags      []string // e.g. ["cp312"], ["abi3"], ["none"]
	PlatformTags []string // e.g. ["manylinux_2_17_x86_64"], ["any"]
}

// Tag is a single (python, abi, platform) compatibility triple.
type Tag struct {
	Python   string
	Abi      string
	Platform string
}

// String renders the tag in the canonical "py-abi-plat" form.
func (t Tag) String() string {
	return t.Python + "-" + t.Abi + "-" + t.Platform
}

// ParseFilename parses a wheel filename. The name must end in ".whl" and
// contain the five (or six, with build tag) dash-separated fields.
func ParseFilename(name string) (Filename, error) {
	base, ok := strings.CutSuffix(name, ".whl")
	if !ok {
		return Filename{}, errors.New(errors.ErrCodeInvalidWheel, "not a wheel filename: %q", name)
	}

	parts := strings.Split(base, "-")
	if len(parts) < 5 || len(parts) > 6 {
		return Filename{}, errors.New(errors.ErrCodeInvalidWheel, "malformed wheel filename: %q", name)
	}

	f := Filename{
		Distribution: parts[0],
		Version:      parts[1],
	}
	rest := parts[2:]
	if len(parts) == 6 {
		f.Build = parts[2]
		rest = parts[3:]
	}

	f.PythonTags = strings.Split(rest[0], ".")
	f.AbiTags = strings.Split(rest[1], ".")
	f.PlatformTags = strings.Split(rest[2], ".")

	for _, field := range [][]string{f.PythonTags, f.AbiTags, f.PlatformTags} {
		for _, tag := range field {
			if tag == "" {
				return Filename{}, errors.New(errors.ErrCodeInvalidWheel, "empty tag in wheel filename: %q", name)
			}
		}
	}
	return f, nil
}

// Tags expands the compressed tag sets into individual triples, in
// filename order.
func (f Filename) Tags() []Tag {
	var tags []Tag
	for _, py := range f.PythonTags {
		for _, abi := range f.AbiTags {
			for _, plat := range f.PlatformTags {
				tags = append(tags, Tag{Python: py, Abi: abi, Platform: plat})
			}
		}
	}
	return tags
}

// IsPure reports whether the wheel is platform-independent
// (every platform tag is "any").
func (f Filename) IsPure() bool {
	for _, p := range f.PlatformTags {
		if p != "any" {
			return false
		}
	}
	return true
}
