package lockfile

import (
	"github.com/lockview/lockview/pkg/errors"
	"github.com/lockview/lockview/pkg/markers"
	"github.com/lockview/lockview/pkg/wheel"
)

// SelectArtifact picks the artifact an installer would use for the given
// environment: the best-matching wheel by tag priority, falling back to
// the sdist when no wheel is compatible.
//
// Local packages (editable, directory, path, virtual sources) record no
// artifacts; SelectArtifact returns nil with no error for them. A remote
// package with nothing compatible returns NO_MATCHING_ARTIFACT, and one
// with no artifacts at all returns MISSING_ARTIFACT.
func (p *Package) SelectArtifact(env markers.Environment) (*Artifact, error) {
	if p.IsLocal() {
		return nil, nil
	}

	if p.Sdist == nil && len(p.Wheels) == 0 {
		return nil, errors.New(errors.ErrCodeMissingArtifact, "%s has no artifacts recorded", p.Name)
	}

	best := -1
	var chosen *Artifact
	for i := range p.Wheels {
		a := &p.Wheels[i]
		f, err := wheel.ParseFilename(a.Filename())
		if err != nil {
			continue // malformed names are Validate's problem, not selection's
		}
		score, ok := wheel.Match(f, env)
		if !ok {
			continue
		}
		if score > best {
			best = score
			chosen = a
		}
	}
	if chosen != nil {
		return chosen, nil
	}

	if p.Sdist != nil {
		return p.Sdist, nil
	}

	return nil, errors.New(errors.ErrCodeNoMatchingArtifact,
		"no artifact of %s %s is compatible with %s/%s python %s",
		p.Name, p.Version, env.SysPlatform, env.PlatformMachine, env.PythonVersion)
}

// AppliesTo reports whether this package record applies in env. Records
// without resolution markers apply everywhere; a multi-version fork
// applies when any of its markers evaluates true.
func (p *Package) AppliesTo(env markers.Environment) (bool, error) {
	if len(p.ResolutionMarkers) == 0 {
		return true, nil
	}
	for _, m := range p.ResolutionMarkers {
		ok, err := markers.EvaluateString(m, env)
		if err != nil {
			return false, errors.Wrap(errors.ErrCodeInvalidMarker, err, "resolution marker of %s", p.Name)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// DependenciesFor returns the package's dependencies that apply in env,
// evaluating each dependency's marker. Dev and optional groups are
// included when their names appear in devGroups/extras. Dependencies with
// markers that fail to parse or evaluate are returned in the error.
func (p *Package) DependenciesFor(env markers.Environment, extras, devGroups []string) ([]Dependency, error) {
	var out []Dependency

	appendIf := func(deps []Dependency) error {
		for _, dep := range deps {
			if dep.Marker != "" {
				ok, err := markers.EvaluateString(dep.Marker, env)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidMarker, err, "dependency %s of %s", dep.Name, p.Name)
				}
				if !ok {
					continue
				}
			}
			out = append(out, dep)
		}
		return nil
	}

	if err := appendIf(p.Dependencies); err != nil {
		return nil, err
	}
	for _, extra := range extras {
		if err := appendIf(p.OptionalDeps[extra]); err != nil {
			return nil, err
		}
	}
	for _, group := range devGroups {
		if err := appendIf(p.DevDeps[group]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
