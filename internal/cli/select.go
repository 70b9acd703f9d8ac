package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/lockfile"
	"github.com/lockview/lockview/pkg/markers"
)

// newSelectCmd creates the select command, which runs installer-style
// artifact selection for one package against a target environment.
func newSelectCmd() *cobra.Command {
	var env envFlags
	var extras []string
	var devGroups []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "select <package>",
		Short: "Pick the artifact an installer would use for a target environment",
		Long: `Select runs the same artifact choice an installer makes: the
best-matching wheel for the target platform and Python version, falling
back to the sdist when no wheel is compatible.

The target environment comes from --platform/--machine/--python, with
defaults from .lockview.yaml.

Examples:
  lockview select msgspec
  lockview select msgspec --platform win32 --python 3.11
  lockview select app --extra plot --dev dev`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, _, err := openLockfile(cmd.Context())
			if err != nil {
				return err
			}
			cfg := configFromContext(cmd.Context())
			target := env.environment(cfg)

			pkgs := lf.PackageVersions(args[0])
			if len(pkgs) == 0 {
				return fmt.Errorf("package %q is not in the lockfile", args[0])
			}

			pkg, err := pickFork(pkgs, target)
			if err != nil {
				return err
			}
			return runSelect(pkg, target, extras, devGroups, asJSON)
		},
	}

	env.register(cmd)
	cmd.Flags().StringSliceVar(&extras, "extra", nil, "optional-dependency groups to include")
	cmd.Flags().StringSliceVar(&devGroups, "dev", nil, "dev-dependency groups to include")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

// pickFork chooses which record of a multi-version fork applies in env.
func pickFork(pkgs []*lockfile.Package, env markers.Environment) (*lockfile.Package, error) {
	if len(pkgs) == 1 {
		return pkgs[0], nil
	}
	for _, pkg := range pkgs {
		ok, err := pkg.AppliesTo(env)
		if err != nil {
			return nil, err
		}
		if ok {
			return pkg, nil
		}
	}
	return nil, fmt.Errorf("no record of %s applies to %s/%s python %s",
		pkgs[0].Name, env.SysPlatform, env.PlatformMachine, env.PythonVersion)
}

type selectionJSON struct {
	Package      string        `json:"package"`
	Version      string        `json:"version"`
	Environment  string        `json:"environment"`
	Local        bool          `json:"local,omitempty"`
	Artifact     *artifactJSON `json:"artifact,omitempty"`
	Dependencies []string      `json:"dependencies,omitempty"`
}

func runSelect(pkg *lockfile.Package, env markers.Environment, extras, devGroups []string, asJSON bool) error {
	artifact, selErr := pkg.SelectArtifact(env)
	deps, depErr := pkg.DependenciesFor(env, extras, devGroups)
	if depErr != nil {
		return depErr
	}

	envLabel := fmt.Sprintf("%s/%s python %s", env.SysPlatform, env.PlatformMachine, env.PythonVersion)

	if asJSON {
		view := selectionJSON{
			Package:     lockfile.NormalizeName(pkg.Name),
			Version:     pkg.Version,
			Environment: envLabel,
			Local:       pkg.IsLocal(),
		}
		if artifact != nil {
			a := artifactView(artifact)
			view.Artifact = &a
		}
		for _, dep := range deps {
			view.Dependencies = append(view.Dependencies, dep.Name)
		}
		if err := printJSON(view); err != nil {
			return err
		}
		return selErr
	}

	printKeyValue("package", lockfile.NormalizeName(pkg.Name)+" "+pkg.Version)
	printKeyValue("target", envLabel)

	switch {
	case selErr != nil:
		printError("%s", selErr)
	case artifact == nil:
		printInfo("local package, nothing to download")
	case artifact.IsWheel():
		printSuccess("wheel %s", StyleValue.Render(artifact.Filename()))
		fmt.Println("  " + StyleDim.Render("url   ") + StyleLink.Render(artifact.URL))
		printDetail("hash  %s", artifact.Hash)
	default:
		printWarning("no compatible wheel, falling back to sdist %s", artifact.Filename())
		fmt.Println("  " + StyleDim.Render("url   ") + StyleLink.Render(artifact.URL))
		printDetail("hash  %s", artifact.Hash)
	}

	if len(deps) > 0 {
		names := make([]string, len(deps))
		for i, dep := range deps {
			names[i] = dep.Name
		}
		printKeyValue("depends on", strings.Join(names, ", "))
	}
	return selErr
}
