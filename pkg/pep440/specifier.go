package pep440

import (
	"strings"

	"github.com/lockview/lockview/pkg/errors"
)

// Specifier is a single version constraint such as ">=0.18.0" or "==1.1.*".
type Specifier struct {
	Op       string // one of == != <= >= < > ~= ===
	Version  Version
	Wildcard bool   // true for prefix matches like ==1.1.*
	Raw      string // original text, trimmed
}

// Specifiers is a comma-separated conjunction of constraints.
// A version matches only if it matches every member.
type Specifiers []Specifier

// specifier operators, longest first so that ">=" wins over ">".
var specOps = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}

// ParseSpecifier parses a single constraint.
func ParseSpecifier(s string) (Specifier, error) {
	raw := strings.TrimSpace(s)
	var op string
	for _, o := range specOps {
		if strings.HasPrefix(raw, o) {
			op = o
			break
		}
	}
	if op == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidVersion, "invalid specifier: %q", s)
	}

	vs := strings.TrimSpace(raw[len(op):])
	if vs == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidVersion, "specifier missing version: %q", s)
	}

	spec := Specifier{Op: op, Raw: raw}

	if strings.HasSuffix(vs, ".*") {
		if op != "==" && op != "!=" {
			return Specifier{}, errors.New(errors.ErrCodeInvalidVersion, "wildcard only valid with == or !=: %q", s)
		}
		spec.Wildcard = true
		vs = strings.TrimSuffix(vs, ".*")
	}

	if op == "===" {
		// Arbitrary equality compares raw strings; no parse required.
		spec.Version = Version{original: vs}
		return spec, nil
	}

	v, err := Parse(vs)
	if err != nil {
		return Specifier{}, err
	}
	if op == "~=" && len(v.Release) < 2 {
		return Specifier{}, errors.New(errors.ErrCodeInvalidVersion, "~= requires at least two release segments: %q", s)
	}
	spec.Version = v
	return spec, nil
}

// ParseSpecifiers parses a comma-separated constraint set such as
// ">=0.18.0,<0.20". An empty string yields an empty set, which matches
// every version.
func ParseSpecifiers(s string) (Specifiers, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var specs Specifiers
	for _, part := range strings.Split(s, ",") {
		spec, err := ParseSpecifier(part)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Match reports whether v satisfies the constraint.
func (s Specifier) Match(v Version) bool {
	switch s.Op {
	case "===":
		return strings.TrimSpace(v.original) == strings.TrimSpace(s.Version.original)
	case "==":
		if s.Wildcard {
			return matchPrefix(v, s.Version)
		}
		if s.Version.Local == "" {
			return v.Public().Compare(s.Version) == 0
		}
		return v.Compare(s.Version) == 0
	case "!=":
		eq := Specifier{Op: "==", Version: s.Version, Wildcard: s.Wildcard}
		return !eq.Match(v)
	case "~=":
		// ~=X.Y.Z means >=X.Y.Z with the X.Y prefix fixed.
		lower := Specifier{Op: ">=", Version: s.Version}
		prefix := s.Version
		prefix.Release = prefix.Release[:len(prefix.Release)-1]
		prefix.Pre, prefix.Post, prefix.Dev, prefix.Local = nil, nil, nil, ""
		return lower.Match(v) && matchPrefix(v, prefix)
	case ">=":
		return v.Public().Compare(s.Version) >= 0
	case "<=":
		return v.Public().Compare(s.Version) <= 0
	case ">":
		// Excludes post-releases of the boundary unless the boundary is one.
		pv := v.Public()
		if pv.Compare(s.Version) <= 0 {
			return false
		}
		if s.Version.Post == nil && v.Post != nil && cmpRelease(v.Release, s.Version.Release) == 0 && v.Epoch == s.Version.Epoch {
			return false
		}
		return true
	case "<":
		// Excludes pre-releases of the boundary unless the boundary is one.
		pv := v.Public()
		if pv.Compare(s.Version) >= 0 {
			return false
		}
		if s.Version.Pre == nil && v.Pre != nil && cmpRelease(v.Release, s.Version.Release) == 0 && v.Epoch == s.Version.Epoch {
			return false
		}
		return true
	}
	return false
}

// matchPrefix reports whether v's epoch and release begin with prefix's.
func matchPrefix(v, prefix Version) bool {
	if v.Epoch != prefix.Epoch {
		return false
	}
	rel := v.Release
	if len(rel) < len(prefix.Release) {
		padded := make([]int, len(prefix.Release))
		copy(padded, rel)
		rel = padded
	}
	for i, n := range prefix.Release {
		if rel[i] != n {
			return false
		}
	}
	return true
}

// Match reports whether v satisfies every constraint in the set.
func (ss Specifiers) Match(v Version) bool {
	for _, s := range ss {
		if !s.Match(v) {
			return false
		}
	}
	return true
}

// String returns the canonical comma-joined form.
func (ss Specifiers) String() string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.Raw
	}
	return strings.Join(parts, ",")
}
