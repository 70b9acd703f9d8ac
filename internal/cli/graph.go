package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/depgraph"
)

// newGraphCmd creates the graph command, which exports the dependency
// graph as JSON, DOT, SVG or PNG.
func newGraphCmd() *cobra.Command {
	var env envFlags
	var format string
	var output string
	var root string
	var extras []string
	var devGroups []string
	var detailed bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the dependency graph",
		Long: `Graph builds the dependency graph from the lockfile and writes it in
the requested format. Without environment flags the graph covers every
recorded package, including all records of multi-version forks; with
--platform/--machine/--python it is filtered to the packages and edges
that apply on that target.

Formats: json (default), dot, svg, png. SVG and PNG are rendered
in-process via Graphviz.

Examples:
  lockview graph                          # JSON to stdout
  lockview graph --format dot -o deps.dot
  lockview graph --format svg -o deps.svg --platform linux --python 3.12
  lockview graph --root app               # only what app reaches`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, _, err := openLockfile(cmd.Context())
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			opts := depgraph.Options{Extras: extras, DevGroups: devGroups}
			if env.set() {
				target := env.environment(configFromContext(cmd.Context()))
				opts.Env = &target
			}

			g, err := depgraph.Build(lf, opts)
			if err != nil {
				return err
			}
			if root != "" {
				g, err = g.Subgraph(root)
				if err != nil {
					return err
				}
			}
			logger.Debug("graph built", "nodes", g.NodeCount(), "edges", g.EdgeCount())

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()

			if err := writeGraph(cmd, g, format, detailed, out); err != nil {
				return err
			}

			if output != "" && output != "-" {
				printFile(output)
				printStats(g.NodeCount(), g.EdgeCount(), false)
				prog.done("graph written")
			}
			return nil
		},
	}

	env.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, dot, svg, png)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&root, "root", "", "restrict to packages reachable from this package")
	cmd.Flags().StringSliceVar(&extras, "extra", nil, "optional-dependency groups to include")
	cmd.Flags().StringSliceVar(&devGroups, "dev", nil, "dev-dependency groups to include")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include version and source in DOT labels")
	return cmd
}

func writeGraph(cmd *cobra.Command, g *depgraph.Graph, format string, detailed bool, out io.Writer) error {
	switch format {
	case "json":
		return depgraph.WriteJSON(g, out)
	case "dot":
		_, err := io.WriteString(out, depgraph.ToDOT(g, depgraph.DOTOptions{Detailed: detailed}))
		return err
	case "svg":
		dot := depgraph.ToDOT(g, depgraph.DOTOptions{Detailed: detailed})
		data, err := depgraph.RenderSVG(cmd.Context(), dot)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "png":
		dot := depgraph.ToDOT(g, depgraph.DOTOptions{Detailed: detailed})
		data, err := depgraph.RenderPNG(cmd.Context(), dot)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q (expected json, dot, svg or png)", format)
	}
}

// openOutput opens the output destination. Empty or "-" means stdout,
// wrapped so the caller can Close unconditionally.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
