package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/lockfile"
)

// newCheckCmd creates the check command, which validates the lockfile's
// internal consistency without touching the network.
func newCheckCmd() *cobra.Command {
	var strict bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the lockfile's internal consistency",
		Long: `Check the lockfile for structural problems: dangling dependency
references, malformed hashes and wheel filenames, unparsable versions
and markers, registry packages with no artifacts.

Exits non-zero when any error-severity problem is found. Warnings and
advisories are reported but do not fail the check unless --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, path, err := openLockfile(cmd.Context())
			if err != nil {
				return err
			}

			problems := lf.Validate()

			if asJSON {
				if problems == nil {
					problems = []lockfile.Problem{}
				}
				if err := printJSON(problems); err != nil {
					return err
				}
			} else {
				printCheckReport(path, problems)
			}

			if lockfile.HasErrors(problems) {
				return fmt.Errorf("%s has errors", path)
			}
			if strict && len(problems) > 0 {
				return fmt.Errorf("%s has %d problems (strict mode)", path, len(problems))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on warnings and advisories too")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func printCheckReport(path string, problems []lockfile.Problem) {
	if len(problems) == 0 {
		printSuccess("%s is consistent", path)
		return
	}

	var errs, warns int
	for _, p := range problems {
		subject := p.Message
		if p.Package != "" {
			subject = StyleHighlight.Render(p.Package) + ": " + p.Message
		}
		switch p.Severity {
		case lockfile.SeverityError:
			errs++
			printError("%s %s", subject, StyleDim.Render("["+string(p.Code)+"]"))
		case lockfile.SeverityWarning:
			warns++
			printWarning("%s %s", subject, StyleDim.Render("["+string(p.Code)+"]"))
		default:
			printInfo("%s %s", subject, StyleDim.Render("["+string(p.Code)+"]"))
		}
	}

	printNewline()
	printDetail("%d problems (%d errors, %d warnings)", len(problems), errs, warns)
}
