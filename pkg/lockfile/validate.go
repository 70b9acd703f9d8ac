package lockfile

import (
	"fmt"

	"github.com/lockview/lockview/pkg/errors"
	"github.com/lockview/lockview/pkg/markers"
	"github.com/lockview/lockview/pkg/pep440"
	"github.com/lockview/lockview/pkg/wheel"
)

// Severity classifies a validation problem.
type Severity string

const (
	// SeverityError marks problems that make the lockfile unusable for
	// installation (dangling references, malformed hashes).
	SeverityError Severity = "error"
	// SeverityWarning marks problems an installer would tolerate but a
	// human should look at.
	SeverityWarning Severity = "warning"
	// SeverityAdvisory marks forward-compatibility notes.
	SeverityAdvisory Severity = "advisory"
)

// Problem is a single validation finding.
type Problem struct {
	Severity Severity    `json:"severity"`
	Code     errors.Code `json:"code"`
	Package  string      `json:"package,omitempty"`
	Message  string      `json:"message"`
}

func (p Problem) String() string {
	if p.Package != "" {
		return fmt.Sprintf("%s [%s] %s: %s", p.Severity, p.Code, p.Package, p.Message)
	}
	return fmt.Sprintf("%s [%s] %s", p.Severity, p.Code, p.Message)
}

// HasErrors reports whether any problem has error severity.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the lockfile's structural and referential invariants
// and returns every problem found. A nil result means the lockfile is
// clean.
func (lf *Lockfile) Validate() []Problem {
	var problems []Problem
	add := func(sev Severity, code errors.Code, pkg, format string, args ...any) {
		problems = append(problems, Problem{
			Severity: sev,
			Code:     code,
			Package:  pkg,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if lf.Revision > KnownRevision {
		add(SeverityAdvisory, errors.ErrCodeUnsupportedVersion, "",
			"lockfile revision %d is newer than known revision %d; some fields may be ignored", lf.Revision, KnownRevision)
	}

	if lf.RequiresPython != "" {
		if _, err := pep440.ParseSpecifiers(lf.RequiresPython); err != nil {
			add(SeverityError, errors.ErrCodeInvalidVersion, "",
				"requires-python %q does not parse: %v", lf.RequiresPython, errors.UserMessage(err))
		}
	}

	for _, m := range lf.ResolutionMarkers {
		if _, err := markers.Parse(m); err != nil {
			add(SeverityError, errors.ErrCodeInvalidMarker, "",
				"resolution marker %q does not parse: %v", m, errors.UserMessage(err))
		}
	}

	// Package names present in the lockfile, for reference checking.
	known := make(map[string]bool, len(lf.Packages))
	seen := make(map[string]bool, len(lf.Packages))

	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		name := NormalizeName(pkg.Name)
		known[name] = true

		key := name + "@" + pkg.Version
		if seen[key] {
			add(SeverityError, errors.ErrCodeInvalidPackage, pkg.Name, "duplicate package record %s", key)
		}
		seen[key] = true
	}

	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		problems = append(problems, lf.validatePackage(pkg, known)...)
	}

	return problems
}

func (lf *Lockfile) validatePackage(pkg *Package, known map[string]bool) []Problem {
	var problems []Problem
	add := func(sev Severity, code errors.Code, format string, args ...any) {
		problems = append(problems, Problem{
			Severity: sev,
			Code:     code,
			Package:  pkg.Name,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if err := errors.ValidatePythonPackageName(pkg.Name); err != nil {
		add(SeverityError, errors.ErrCodeInvalidPackage, "%s", errors.UserMessage(err))
	} else if pkg.Name != NormalizeName(pkg.Name) {
		add(SeverityWarning, errors.ErrCodeInvalidPackage, "name %q is not normalized (want %q)", pkg.Name, NormalizeName(pkg.Name))
	}

	if pkg.Version == "" {
		add(SeverityError, errors.ErrCodeInvalidVersion, "missing version")
	} else if _, err := pep440.Parse(pkg.Version); err != nil {
		add(SeverityWarning, errors.ErrCodeInvalidVersion, "version %q does not parse", pkg.Version)
	}

	switch n := pkg.Source.setCount(); {
	case n == 0:
		add(SeverityError, errors.ErrCodeInvalidPackage, "missing source")
	case n > 1:
		add(SeverityError, errors.ErrCodeInvalidPackage, "ambiguous source: %d variants set", n)
	}

	if pkg.Source.Kind() == SourceRegistry && pkg.Sdist == nil && len(pkg.Wheels) == 0 {
		add(SeverityError, errors.ErrCodeMissingArtifact, "registry package has no artifacts")
	}

	for _, m := range pkg.ResolutionMarkers {
		if _, err := markers.Parse(m); err != nil {
			add(SeverityError, errors.ErrCodeInvalidMarker, "resolution marker %q does not parse", m)
		}
	}

	for _, dep := range pkg.Dependencies {
		problems = append(problems, lf.validateDependency(pkg, dep, known, "")...)
	}
	for group, deps := range pkg.OptionalDeps {
		for _, dep := range deps {
			problems = append(problems, lf.validateDependency(pkg, dep, known, "extra "+group)...)
		}
	}
	for group, deps := range pkg.DevDeps {
		for _, dep := range deps {
			problems = append(problems, lf.validateDependency(pkg, dep, known, "dev group "+group)...)
		}
	}

	if pkg.Sdist != nil {
		problems = append(problems, validateArtifact(pkg, pkg.Sdist, false)...)
	}
	for i := range pkg.Wheels {
		problems = append(problems, validateArtifact(pkg, &pkg.Wheels[i], true)...)
	}

	for _, req := range pkg.Metadata.RequiresDist {
		if req.Specifier == "" {
			continue
		}
		if _, err := pep440.ParseSpecifiers(req.Specifier); err != nil {
			add(SeverityWarning, errors.ErrCodeInvalidVersion,
				"requires-dist specifier %q for %s does not parse", req.Specifier, req.Name)
		}
	}

	return problems
}

func (lf *Lockfile) validateDependency(pkg *Package, dep Dependency, known map[string]bool, group string) []Problem {
	var problems []Problem
	add := func(sev Severity, code errors.Code, format string, args ...any) {
		problems = append(problems, Problem{Severity: sev, Code: code, Package: pkg.Name, Message: fmt.Sprintf(format, args...)})
	}

	suffix := ""
	if group != "" {
		suffix = " (" + group + ")"
	}

	if dep.Name == "" {
		add(SeverityError, errors.ErrCodeInvalidPackage, "dependency with empty name%s", suffix)
		return problems
	}
	if !known[NormalizeName(dep.Name)] {
		add(SeverityError, errors.ErrCodePackageNotFound, "depends on %q%s, which is not in the lockfile", dep.Name, suffix)
	}
	if dep.Marker != "" {
		if _, err := markers.Parse(dep.Marker); err != nil {
			add(SeverityError, errors.ErrCodeInvalidMarker, "dependency marker %q does not parse%s", dep.Marker, suffix)
		}
	}
	return problems
}

func validateArtifact(pkg *Package, a *Artifact, isWheel bool) []Problem {
	var problems []Problem
	add := func(sev Severity, code errors.Code, format string, args ...any) {
		problems = append(problems, Problem{Severity: sev, Code: code, Package: pkg.Name, Message: fmt.Sprintf(format, args...)})
	}

	name := a.Filename()

	switch {
	case a.URL == "" && a.Path == "":
		add(SeverityError, errors.ErrCodeMissingArtifact, "artifact with neither url nor path")
		return problems
	case a.URL != "" && a.Path != "":
		add(SeverityError, errors.ErrCodeInvalidInput, "artifact %s has both url and path", name)
	}

	if a.URL != "" {
		if err := errors.ValidateURL(a.URL); err != nil {
			add(SeverityError, errors.ErrCodeInvalidInput, "artifact url %q: %s", a.URL, errors.UserMessage(err))
		}
	}
	if a.Path != "" {
		if err := errors.ValidatePath(a.Path); err != nil {
			add(SeverityError, errors.ErrCodeInvalidPath, "artifact path %q: %s", a.Path, errors.UserMessage(err))
		}
	}

	if a.Hash == "" {
		add(SeverityWarning, errors.ErrCodeInvalidHash, "artifact %s has no hash recorded", name)
	} else if err := a.Hash.Validate(); err != nil {
		add(SeverityError, errors.ErrCodeInvalidHash, "artifact %s: %s", name, errors.UserMessage(err))
	}

	if a.Size < 0 {
		add(SeverityError, errors.ErrCodeInvalidInput, "artifact %s has negative size", name)
	}

	if isWheel {
		f, err := wheel.ParseFilename(name)
		if err != nil {
			add(SeverityError, errors.ErrCodeInvalidWheel, "wheel filename %q does not parse", name)
			return problems
		}
		if NormalizeName(f.Distribution) != NormalizeName(pkg.Name) {
			add(SeverityError, errors.ErrCodeInvalidWheel,
				"wheel %q is for distribution %q, not %q", name, f.Distribution, pkg.Name)
		}
		if pkg.Version != "" && f.Version != pkg.Version {
			add(SeverityError, errors.ErrCodeInvalidWheel,
				"wheel %q carries version %q, record says %q", name, f.Version, pkg.Version)
		}
	}

	return problems
}
