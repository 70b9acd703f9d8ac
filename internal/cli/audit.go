package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockview/lockview/pkg/audit"
	"github.com/lockview/lockview/pkg/integrations/pypi"
)

// newAuditCmd creates the audit command, which cross-checks the pinned
// registry packages against the live PyPI index.
func newAuditCmd() *cobra.Command {
	var jobs int
	var refresh bool
	var noCache bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Cross-check pinned packages against PyPI",
		Long: `Audit asks the index, for every registry-sourced pin: does the
version still exist, has it been yanked, do the served digests still
match the recorded ones, and is a newer release available.

Index responses are cached (file cache by default, Redis when
configured); --refresh bypasses the cache, --no-cache disables it.

Staleness is informational. Only gone, yanked, drifted or unreachable
pins fail the audit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lf, path, err := openLockfile(ctx)
			if err != nil {
				return err
			}
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)
			prog := newProgress(logger)

			backend := newCacheBackend(ctx, noCache)
			defer backend.Close()
			client := pypi.NewClient(backend, cfg.Cache.TTL.Duration)
			if cfg.Index.URL != "" {
				client = pypi.NewClientWithBaseURL(backend, cfg.Cache.TTL.Duration, cfg.Index.URL)
			}

			spin := newSpinnerWithContext(ctx, "consulting the index")
			spin.Start()
			report := audit.Run(ctx, client, lf, audit.Options{
				Jobs:    jobs,
				Refresh: refresh,
				Progress: func(e audit.Entry) {
					logger.Debug("audited", "package", e.Package, "findings", len(e.Findings))
				},
			})
			spin.Stop()
			if err := ctx.Err(); err != nil {
				return err
			}

			if asJSON {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printAuditReport(report)
				prog.done("audit finished")
			}

			if report.Flagged > 0 {
				return fmt.Errorf("%s has %d flagged packages", path, report.Flagged)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of concurrent index lookups")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached index responses")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching entirely")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func printAuditReport(report *audit.Report) {
	for _, e := range report.Entries {
		label := StyleHighlight.Render(e.Package) + " " + e.Version
		switch {
		case e.Clean():
			printSuccess("%s", label)
		default:
			findings := make([]string, len(e.Findings))
			severe := false
			for i, f := range e.Findings {
				findings[i] = string(f)
				if f != audit.FindingOutdated {
					severe = true
				}
			}
			line := fmt.Sprintf("%s: %s", label, strings.Join(findings, ", "))
			if severe {
				printError("%s", line)
			} else {
				printWarning("%s", line)
			}
			if e.Detail != "" {
				printDetail("%s", e.Detail)
			}
			if e.Latest != "" && e.Latest != e.Version {
				printDetail("latest on index: %s", e.Latest)
			}
		}
	}

	printNewline()
	printDetail("%d packages: %d flagged, %d outdated, %d errors",
		len(report.Entries), report.Flagged, report.Outdated, report.Errors)
}
