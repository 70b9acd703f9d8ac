package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/lockfile"
)

// newShowCmd creates the show command: a summary of the locked set, or
// the full record of one package.
func newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [package]",
		Short: "Show the locked package set or one package record",
		Long: `Show a summary of the lockfile, or the full record of one package.

Examples:
  lockview show                 # lockfile summary and package table
  lockview show msgspec         # one package in detail
  lockview show msgspec --json  # machine-readable output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, path, err := openLockfile(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return showPackage(lf, args[0], asJSON)
			}
			return showSummary(lf, path, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func showSummary(lf *lockfile.Lockfile, path string, asJSON bool) error {
	if asJSON {
		return printJSON(summaryView(lf, path))
	}

	printKeyValue("lockfile", path)
	printKeyValue("version", fmt.Sprintf("%d", lf.Version))
	if lf.Revision != 0 {
		printKeyValue("revision", fmt.Sprintf("%d", lf.Revision))
	}
	if lf.RequiresPython != "" {
		printKeyValue("python", lf.RequiresPython)
	}
	printKeyValue("packages", fmt.Sprintf("%d", len(lf.Packages)))
	printKeyValue("artifacts", fmt.Sprintf("%d", lf.ArtifactCount()))
	printNewline()

	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		name := StyleHighlight.Render(lockfile.NormalizeName(pkg.Name))
		line := fmt.Sprintf("%s %s", name, StyleValue.Render(pkg.Version))
		meta := string(pkg.Source.Kind())
		if pkg.IsLocal() {
			meta += ", local"
		}
		fmt.Printf("  %s %s\n", line, StyleDim.Render("("+meta+")"))
	}
	return nil
}

type summaryJSON struct {
	Path           string `json:"path"`
	Version        int    `json:"version"`
	Revision       int    `json:"revision,omitempty"`
	RequiresPython string `json:"requires_python,omitempty"`
	Packages       int    `json:"packages"`
	Artifacts      int    `json:"artifacts"`
}

func summaryView(lf *lockfile.Lockfile, path string) summaryJSON {
	return summaryJSON{
		Path:           path,
		Version:        lf.Version,
		Revision:       lf.Revision,
		RequiresPython: lf.RequiresPython,
		Packages:       len(lf.Packages),
		Artifacts:      lf.ArtifactCount(),
	}
}

func showPackage(lf *lockfile.Lockfile, name string, asJSON bool) error {
	pkgs := lf.PackageVersions(name)
	if len(pkgs) == 0 {
		return fmt.Errorf("package %q is not in the lockfile", name)
	}

	if asJSON {
		views := make([]packageJSON, len(pkgs))
		for i, pkg := range pkgs {
			views[i] = packageView(pkg)
		}
		if len(views) == 1 {
			return printJSON(views[0])
		}
		return printJSON(views)
	}

	for i, pkg := range pkgs {
		if i > 0 {
			printNewline()
		}
		printPackage(pkg)
	}
	return nil
}

type artifactJSON struct {
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	Filename string `json:"filename,omitempty"`
	Hash     string `json:"hash,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type packageJSON struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	Source       string         `json:"source"`
	SourceValue  string         `json:"source_value,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Sdist        *artifactJSON  `json:"sdist,omitempty"`
	Wheels       []artifactJSON `json:"wheels,omitempty"`
}

func packageView(pkg *lockfile.Package) packageJSON {
	view := packageJSON{
		Name:        lockfile.NormalizeName(pkg.Name),
		Version:     pkg.Version,
		Source:      string(pkg.Source.Kind()),
		SourceValue: pkg.Source.Value(),
	}
	for _, dep := range pkg.Dependencies {
		name := dep.Name
		if dep.Marker != "" {
			name += " ; " + dep.Marker
		}
		view.Dependencies = append(view.Dependencies, name)
	}
	if pkg.Sdist != nil {
		a := artifactView(pkg.Sdist)
		view.Sdist = &a
	}
	for i := range pkg.Wheels {
		view.Wheels = append(view.Wheels, artifactView(&pkg.Wheels[i]))
	}
	return view
}

func artifactView(a *lockfile.Artifact) artifactJSON {
	return artifactJSON{
		URL:      a.URL,
		Path:     a.Path,
		Filename: a.Filename(),
		Hash:     string(a.Hash),
		Size:     a.Size,
	}
}

func printPackage(pkg *lockfile.Package) {
	fmt.Println(StyleTitle.Render(lockfile.NormalizeName(pkg.Name)) + " " + StyleValue.Render(pkg.Version))
	printKeyValue("source", string(pkg.Source.Kind()))
	if v := pkg.Source.Value(); v != "" {
		printKeyValue("origin", v)
	}

	if len(pkg.Dependencies) > 0 {
		deps := make([]string, len(pkg.Dependencies))
		for i, dep := range pkg.Dependencies {
			deps[i] = dep.Name
			if dep.Marker != "" {
				deps[i] += StyleDim.Render(" ; "+dep.Marker)
			}
		}
		printKeyValue("depends on", strings.Join(deps, ", "))
	}

	if pkg.Sdist != nil {
		printDetail("sdist  %s  %s", pkg.Sdist.Filename(), formatSize(pkg.Sdist.Size))
	}
	for i := range pkg.Wheels {
		w := &pkg.Wheels[i]
		printDetail("wheel  %s  %s", w.Filename(), formatSize(w.Size))
	}
}

func formatSize(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	}
}
