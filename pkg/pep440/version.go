// Package pep440 implements Python version parsing and ordering as defined
// by the packaging ecosystem's version scheme (PEP 440).
//
// A version consists of an optional epoch, a release segment, and optional
// pre-release, post-release, development and local segments:
//
//	[N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local]
//
// Versions are totally ordered. Development releases sort before
// pre-releases, which sort before final releases, which sort before
// post-releases. Local version segments break ties last.
//
// The package also provides [Specifier] and [Specifiers] for matching
// versions against constraint expressions such as ">=0.18.0,<0.20".
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lockview/lockview/pkg/errors"
)

// preRank maps pre-release labels to their ordering rank.
var preRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// preAliases normalizes alternate pre-release spellings to canonical labels.
var preAliases = map[string]string{
	"alpha":   "a",
	"beta":    "b",
	"c":       "rc",
	"pre":     "rc",
	"preview": "rc",
}

// versionRE matches the full version grammar, case-insensitive, with the
// separator flexibility the scheme permits (".", "-", "_" or none).
var versionRE = regexp.MustCompile(`(?i)^v?` +
	`(?:(\d+)!)?` + // epoch
	`(\d+(?:\.\d+)*)` + // release
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d*))?` + // pre
	`(?:(?:-(\d+))|(?:[-_.]?(post|r|rev)[-_.]?(\d*)))?` + // post
	`(?:[-_.]?(dev)[-_.]?(\d*))?` + // dev
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`) // local

// Version is a parsed version. The zero value is not a valid version;
// construct with [Parse] or [MustParse].
type Version struct {
	Epoch   int
	Release []int  // release segment numbers, at least one
	Pre     *Seg   // pre-release (a/b/rc), nil if absent
	Post    *int   // post-release number, nil if absent
	Dev     *int   // dev-release number, nil if absent
	Local   string // local segment without the "+", empty if absent

	original string
}

// Seg is a labeled numeric segment such as "rc1".
type Seg struct {
	Label string
	N     int
}

// Parse parses s into a Version. Surrounding whitespace and a leading "v"
// are tolerated; alternate pre/post spellings are normalized.
func Parse(s string) (Version, error) {
	m := versionRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid version: %q", s)
	}

	v := Version{original: strings.TrimSpace(s)}

	if m[1] != "" {
		v.Epoch, _ = strconv.Atoi(m[1])
	}

	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid release segment in %q", s)
		}
		v.Release = append(v.Release, n)
	}

	if m[3] != "" {
		label := strings.ToLower(m[3])
		if canon, ok := preAliases[label]; ok {
			label = canon
		}
		v.Pre = &Seg{Label: label, N: atoiDefault(m[4])}
	}

	switch {
	case m[5] != "": // implicit post: "1.0-1"
		n := atoiDefault(m[5])
		v.Post = &n
	case m[6] != "":
		n := atoiDefault(m[7])
		v.Post = &n
	}

	if m[8] != "" {
		n := atoiDefault(m[9])
		v.Dev = &n
	}

	if m[10] != "" {
		v.Local = strings.ToLower(strings.NewReplacer("-", ".", "_", ".").Replace(m[10]))
	}

	return v, nil
}

// MustParse parses s and panics on error. For tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// String returns the normalized form of the version.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%d", n)
	}
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Label, v.Pre.N)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	if v.Local != "" {
		fmt.Fprintf(&b, "+%s", v.Local)
	}
	return b.String()
}

// IsPrerelease reports whether the version has a pre-release or dev segment.
func (v Version) IsPrerelease() bool {
	return v.Pre != nil || v.Dev != nil
}

// Public returns the version without its local segment.
func (v Version) Public() Version {
	v.Local = ""
	return v
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater
// than o under the scheme's total ordering.
func (v Version) Compare(o Version) int {
	if c := cmpInt(v.Epoch, o.Epoch); c != 0 {
		return c
	}
	if c := cmpRelease(v.Release, o.Release); c != 0 {
		return c
	}
	if c := cmpInt(v.preKey(), o.preKey()); c != 0 {
		return c
	}
	if v.Pre != nil && o.Pre != nil {
		if c := cmpInt(v.Pre.N, o.Pre.N); c != 0 {
			return c
		}
	}
	if c := cmpInt(v.postKey(), o.postKey()); c != 0 {
		return c
	}
	if c := cmpInt(v.devKey(), o.devKey()); c != 0 {
		return c
	}
	return cmpLocal(v.Local, o.Local)
}

// Sentinels for optional-segment ordering. Any real segment number fits
// comfortably between them.
const (
	negInf = -1 << 40
	posInf = 1 << 40
)

// preKey orders dev-only versions before pre-releases before finals.
func (v Version) preKey() int {
	switch {
	case v.Pre != nil:
		return preRank[v.Pre.Label]
	case v.Post == nil && v.Dev != nil:
		return negInf
	default:
		return posInf
	}
}

func (v Version) postKey() int {
	if v.Post != nil {
		return *v.Post
	}
	return negInf
}

func (v Version) devKey() int {
	if v.Dev != nil {
		return *v.Dev
	}
	return posInf
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpRelease compares release segments, padding the shorter with zeros
// so that 1.0 == 1.0.0.
func cmpRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := range n {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if c := cmpInt(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// cmpLocal compares local segments: absent sorts first, then segment by
// segment with numeric segments greater than alphanumeric ones.
func cmpLocal(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		switch {
		case aerr == nil && berr == nil:
			if c := cmpInt(an, bn); c != 0 {
				return c
			}
		case aerr == nil:
			return 1 // numeric beats alpha
		case berr == nil:
			return -1
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}
	return cmpInt(len(as), len(bs))
}
