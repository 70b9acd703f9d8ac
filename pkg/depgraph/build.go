package depgraph

import (
	"github.com/lockview/lockview/pkg/errors"
	"github.com/lockview/lockview/pkg/lockfile"
	"github.com/lockview/lockview/pkg/markers"
)

// Options configures graph construction.
type Options struct {
	// Env, when set, filters the graph to one environment: dependency
	// markers are evaluated and multi-version forks collapse to the
	// records whose resolution markers apply. When nil the graph keeps
	// every record and every dependency edge.
	Env *markers.Environment
	// Extras names optional-dependency groups to include.
	Extras []string
	// DevGroups names dev-dependency groups to include.
	DevGroups []string
}

// Build constructs the dependency graph of a lockfile.
//
// Node IDs are normalized package names; when the lockfile records a
// name at several versions, those records get name@version IDs instead.
// Dependency entries that survive marker evaluation become edges. An
// edge to a forked name points at every fork that remains after
// environment filtering: the lockfile does not record which fork a
// dependent resolves to, so the graph keeps the ambiguity visible.
func Build(lf *lockfile.Lockfile, opts Options) (*Graph, error) {
	g := New()

	counts := make(map[string]int, len(lf.Packages))
	for i := range lf.Packages {
		counts[lockfile.NormalizeName(lf.Packages[i].Name)]++
	}

	id := func(p *lockfile.Package) string {
		name := lockfile.NormalizeName(p.Name)
		if counts[name] > 1 {
			return name + "@" + p.Version
		}
		return name
	}

	// ids maps normalized name to the node IDs carrying it, so edges
	// can be resolved by bare dependency name.
	ids := make(map[string][]string)
	included := make(map[*lockfile.Package]bool, len(lf.Packages))

	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		if opts.Env != nil {
			ok, err := pkg.AppliesTo(*opts.Env)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		nodeID := id(pkg)
		if err := g.AddNode(Node{
			ID:      nodeID,
			Name:    lockfile.NormalizeName(pkg.Name),
			Version: pkg.Version,
			Source:  string(pkg.Source.Kind()),
			Local:   pkg.IsLocal(),
		}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err, "add package %s", pkg.Name)
		}
		ids[lockfile.NormalizeName(pkg.Name)] = append(ids[lockfile.NormalizeName(pkg.Name)], nodeID)
		included[pkg] = true
	}

	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		if !included[pkg] {
			continue
		}
		from := id(pkg)

		deps, err := resolveDeps(pkg, opts)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			for _, to := range ids[lockfile.NormalizeName(d.dep.Name)] {
				if err := g.AddEdge(Edge{From: from, To: to, Extra: d.group}); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidLockfile, err,
						"dependency %s of %s", d.dep.Name, pkg.Name)
				}
			}
		}
	}

	return g, nil
}

type groupedDep struct {
	dep   lockfile.Dependency
	group string
}

func resolveDeps(pkg *lockfile.Package, opts Options) ([]groupedDep, error) {
	keep := func(dep lockfile.Dependency) (bool, error) {
		if dep.Marker == "" || opts.Env == nil {
			return true, nil
		}
		ok, err := markers.EvaluateString(dep.Marker, *opts.Env)
		if err != nil {
			return false, errors.Wrap(errors.ErrCodeInvalidMarker, err,
				"dependency %s of %s", dep.Name, pkg.Name)
		}
		return ok, nil
	}

	var out []groupedDep
	collect := func(deps []lockfile.Dependency, group string) error {
		for _, dep := range deps {
			ok, err := keep(dep)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, groupedDep{dep: dep, group: group})
			}
		}
		return nil
	}

	if err := collect(pkg.Dependencies, ""); err != nil {
		return nil, err
	}
	for _, extra := range opts.Extras {
		if err := collect(pkg.OptionalDeps[extra], extra); err != nil {
			return nil, err
		}
	}
	for _, group := range opts.DevGroups {
		if err := collect(pkg.DevDeps[group], "dev:"+group); err != nil {
			return nil, err
		}
	}
	return out, nil
}
