package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/verify"
)

// newVerifyCmd creates the verify command, which recomputes artifact
// digests and compares them against the recorded hashes.
func newVerifyCmd() *cobra.Command {
	var env envFlags
	var distDir string
	var jobs int
	var packages []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify artifact hashes against the lockfile",
		Long: `Verify downloads (or reads from --dist-dir) every artifact and
recomputes its digest, comparing against the hash pinned in the
lockfile. Any mismatch, missing artifact, or fetch error fails the run.

By default every recorded artifact is checked. With
--platform/--machine/--python only the artifact an installer would pick
for that environment is verified.

Examples:
  lockview verify                       # stream from recorded URLs
  lockview verify --dist-dir ./dist     # check a local download dir
  lockview verify --package msgspec -j 8
  lockview verify --platform linux --python 3.12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, path, err := openLockfile(cmd.Context())
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			spin := newSpinnerWithContext(cmd.Context(), "verifying artifacts")
			spin.Start()

			opts := verify.Options{
				DistDir:  distDir,
				Jobs:     jobs,
				Packages: packages,
				Progress: func(res verify.Result) {
					logger.Debug("verified", "package", res.Package, "file", res.Filename, "status", res.Status)
				},
			}
			if env.set() {
				target := env.environment(configFromContext(cmd.Context()))
				opts.Env = &target
			}
			report, runErr := verify.New(nil).Run(cmd.Context(), lf, opts)
			spin.Stop()
			if runErr != nil {
				return runErr
			}

			if asJSON {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printVerifyReport(report)
				prog.done("verification finished")
			}

			if report.Failed() {
				return fmt.Errorf("%s failed verification", path)
			}
			return nil
		},
	}

	env.register(cmd)
	cmd.Flags().StringVar(&distDir, "dist-dir", "", "verify local files in this directory instead of downloading")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of parallel workers")
	cmd.Flags().StringSliceVar(&packages, "package", nil, "restrict verification to these packages")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func printVerifyReport(report *verify.Report) {
	for _, res := range report.Results {
		label := res.Package + " " + res.Filename
		switch res.Status {
		case verify.StatusOK:
			printSuccess("%s", label)
		case verify.StatusMismatch:
			printError("%s: hash mismatch", label)
			if res.Expected != "" {
				printDetail("expected %s", res.Expected)
				printDetail("actual   %s", res.Actual)
			}
			if res.Detail != "" {
				printDetail("%s", res.Detail)
			}
		case verify.StatusMissing:
			printError("%s: %s", label, res.Detail)
		case verify.StatusSkipped:
			printDetail("%s skipped: %s", label, res.Detail)
		case verify.StatusError:
			printError("%s: %s", label, res.Detail)
		}
	}

	printNewline()
	printDetail("%d artifacts: %d ok, %d mismatched, %d missing, %d skipped, %d errors",
		report.Total(), report.OK, report.Mismatch, report.Missing, report.Skipped, report.Errors)
}
