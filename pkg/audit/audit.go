// Package audit cross-checks locked packages against the live index.
//
// A lockfile pins what the resolver saw at resolution time; the index
// moves on. Audit asks, for every registry-sourced pin: does the version
// still exist, has it been yanked, do the digests the index serves today
// still match the recorded ones, and is a newer release available.
package audit

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/lockview/lockview/pkg/integrations"
	"github.com/lockview/lockview/pkg/integrations/pypi"
	"github.com/lockview/lockview/pkg/lockfile"
	"github.com/lockview/lockview/pkg/pep440"
)

// Finding classifies one observation about a pinned package.
type Finding string

const (
	// FindingGone means the pinned version no longer exists on the index.
	FindingGone Finding = "gone"
	// FindingYanked means the pinned release or one of its recorded
	// artifacts has been yanked.
	FindingYanked Finding = "yanked"
	// FindingDrift means a recorded digest is absent from the index's
	// current file set for the pinned version.
	FindingDrift Finding = "drift"
	// FindingOutdated means a newer non-prerelease version exists.
	// Informational; the pin itself is intact.
	FindingOutdated Finding = "outdated"
	// FindingError means the index could not be consulted.
	FindingError Finding = "error"
)

// Entry is the audit outcome for one locked package.
type Entry struct {
	Package  string    `json:"package"`
	Version  string    `json:"version"`
	Findings []Finding `json:"findings,omitempty"`
	// Latest is the newest non-prerelease version on the index, when known.
	Latest string `json:"latest,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Clean reports whether the entry carries no findings.
func (e *Entry) Clean() bool { return len(e.Findings) == 0 }

// Report aggregates audit entries for a lockfile.
type Report struct {
	Entries []Entry `json:"entries"`
	// Flagged counts entries with at least one non-informational finding.
	Flagged int `json:"flagged"`
	// Outdated counts entries whose only finding is a newer version.
	Outdated int `json:"outdated"`
	Errors   int `json:"errors"`
}

// Options configures an audit run.
type Options struct {
	// Jobs bounds concurrent index lookups. Zero means 4.
	Jobs int
	// Refresh bypasses the response cache.
	Refresh bool
	// Progress, when set, is called after each package completes.
	Progress func(Entry)
}

// Releases is the index surface audit needs. *pypi.Client satisfies it.
type Releases interface {
	FetchRelease(ctx context.Context, name, version string, refresh bool) (*pypi.Release, error)
	FetchLatest(ctx context.Context, name string, refresh bool) (*pypi.Release, error)
}

// Run audits every registry-sourced package in the lockfile. Local
// packages have nothing to compare and are left out. Index failures
// degrade to per-package error entries, never a failed run.
func Run(ctx context.Context, client Releases, lf *lockfile.Lockfile, opts Options) *Report {
	var pkgs []*lockfile.Package
	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		if pkg.Source.Kind() == lockfile.SourceRegistry {
			pkgs = append(pkgs, pkg)
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = 4
	}
	if jobs > len(pkgs) && len(pkgs) > 0 {
		jobs = len(pkgs)
	}

	report := &Report{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	pkgCh := make(chan *lockfile.Package)

	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pkg := range pkgCh {
				entry := auditOne(ctx, client, pkg, opts.Refresh)
				mu.Lock()
				report.add(entry, opts.Progress)
				mu.Unlock()
			}
		}()
	}

	for _, pkg := range pkgs {
		select {
		case <-ctx.Done():
		case pkgCh <- pkg:
			continue
		}
		break
	}
	close(pkgCh)
	wg.Wait()

	sort.Slice(report.Entries, func(i, k int) bool {
		a, b := report.Entries[i], report.Entries[k]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		return a.Version < b.Version
	})
	return report
}

func (r *Report) add(e Entry, progress func(Entry)) {
	r.Entries = append(r.Entries, e)
	informationalOnly := true
	for _, f := range e.Findings {
		switch f {
		case FindingError:
			r.Errors++
			informationalOnly = false
		case FindingOutdated:
		default:
			informationalOnly = false
		}
	}
	if !e.Clean() && !informationalOnly {
		r.Flagged++
	} else if len(e.Findings) > 0 {
		r.Outdated++
	}
	if progress != nil {
		progress(e)
	}
}

func auditOne(ctx context.Context, client Releases, pkg *lockfile.Package, refresh bool) Entry {
	entry := Entry{Package: lockfile.NormalizeName(pkg.Name), Version: pkg.Version}

	rel, err := client.FetchRelease(ctx, pkg.Name, pkg.Version, refresh)
	switch {
	case err == nil:
		checkRelease(&entry, pkg, rel)
	case errors.Is(err, integrations.ErrNotFound):
		entry.Findings = append(entry.Findings, FindingGone)
		entry.Detail = "pinned version not on the index"
	default:
		entry.Findings = append(entry.Findings, FindingError)
		entry.Detail = err.Error()
		return entry
	}

	latest, err := client.FetchLatest(ctx, pkg.Name, refresh)
	if err == nil {
		entry.Latest = latest.Version
		if newer(latest.Version, pkg.Version) {
			entry.Findings = append(entry.Findings, FindingOutdated)
		}
	}
	return entry
}

func checkRelease(entry *Entry, pkg *lockfile.Package, rel *pypi.Release) {
	if rel.Yanked {
		entry.Findings = append(entry.Findings, FindingYanked)
		entry.Detail = rel.YankedReason
	}

	// Index digests for the pinned version, for drift detection.
	served := make(map[string]bool, len(rel.Files))
	yankedFiles := make(map[string]bool)
	for _, f := range rel.Files {
		served[f.SHA256] = true
		if f.Yanked {
			yankedFiles[f.SHA256] = true
		}
	}

	drift, yanked := false, false
	for _, a := range pkg.Artifacts() {
		// The JSON API only advertises sha256; other recorded
		// algorithms cannot be compared against the index.
		if a.Hash.Algorithm() != "sha256" {
			continue
		}
		digest := a.Hash.Digest()
		if digest == "" {
			continue
		}
		if !served[digest] {
			drift = true
		} else if yankedFiles[digest] {
			yanked = true
		}
	}
	if drift {
		entry.Findings = append(entry.Findings, FindingDrift)
	}
	if yanked && !rel.Yanked {
		entry.Findings = append(entry.Findings, FindingYanked)
	}
}

// newer reports whether latest is a newer stable version than pinned.
// Prereleases never count; unparsable versions never count.
func newer(latest, pinned string) bool {
	lv, err := pep440.Parse(latest)
	if err != nil || lv.IsPrerelease() {
		return false
	}
	pv, err := pep440.Parse(pinned)
	if err != nil {
		return false
	}
	return lv.Compare(pv) > 0
}
