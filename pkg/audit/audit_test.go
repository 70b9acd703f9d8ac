package audit

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/lockview/lockview/pkg/integrations"
	"github.com/lockview/lockview/pkg/integrations/pypi"
	"github.com/lockview/lockview/pkg/lockfile"
)

const (
	digestGood = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	digestOld  = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// fakeIndex serves canned releases keyed by name@version; "latest" maps
// bare names to their newest release.
type fakeIndex struct {
	releases map[string]*pypi.Release
	latest   map[string]*pypi.Release
	err      error
}

func (f *fakeIndex) FetchRelease(_ context.Context, name, version string, _ bool) (*pypi.Release, error) {
	if f.err != nil {
		return nil, f.err
	}
	rel, ok := f.releases[name+"@"+version]
	if !ok {
		return nil, integrations.ErrNotFound
	}
	return rel, nil
}

func (f *fakeIndex) FetchLatest(_ context.Context, name string, _ bool) (*pypi.Release, error) {
	if f.err != nil {
		return nil, f.err
	}
	rel, ok := f.latest[name]
	if !ok {
		return nil, integrations.ErrNotFound
	}
	return rel, nil
}

func registryPackage(name, version, digest string) lockfile.Package {
	return lockfile.Package{
		Name:    name,
		Version: version,
		Source:  lockfile.Source{Registry: "https://pypi.org/simple"},
		Sdist: &lockfile.Artifact{
			URL:  "https://example.com/" + name + "-" + version + ".tar.gz",
			Hash: lockfile.Hash("sha256:" + digest),
			Size: 1,
		},
	}
}

func findingsOf(t *testing.T, report *Report, pkg string) []Finding {
	t.Helper()
	for _, e := range report.Entries {
		if e.Package == pkg {
			return e.Findings
		}
	}
	t.Fatalf("no entry for %s in %+v", pkg, report.Entries)
	return nil
}

func TestRun_CleanPin(t *testing.T) {
	index := &fakeIndex{
		releases: map[string]*pypi.Release{
			"msgspec@0.19.0": {Name: "msgspec", Version: "0.19.0", Files: []pypi.File{{SHA256: digestGood}}},
		},
		latest: map[string]*pypi.Release{
			"msgspec": {Name: "msgspec", Version: "0.19.0"},
		},
	}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{registryPackage("msgspec", "0.19.0", digestGood)}}

	report := Run(context.Background(), index, lf, Options{})
	if report.Flagged != 0 || report.Outdated != 0 || report.Errors != 0 {
		t.Errorf("report = %+v, want clean", report)
	}
	if len(report.Entries) != 1 || !report.Entries[0].Clean() {
		t.Errorf("entries = %+v", report.Entries)
	}
}

func TestRun_GoneVersion(t *testing.T) {
	index := &fakeIndex{releases: map[string]*pypi.Release{}, latest: map[string]*pypi.Release{}}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{registryPackage("msgspec", "0.19.0", digestGood)}}

	report := Run(context.Background(), index, lf, Options{})
	if got := findingsOf(t, report, "msgspec"); !slices.Contains(got, FindingGone) {
		t.Errorf("findings = %v, want gone", got)
	}
	if report.Flagged != 1 {
		t.Errorf("Flagged = %d, want 1", report.Flagged)
	}
}

func TestRun_Drift(t *testing.T) {
	index := &fakeIndex{
		releases: map[string]*pypi.Release{
			// The index now serves a different digest for the same version.
			"msgspec@0.19.0": {Name: "msgspec", Version: "0.19.0", Files: []pypi.File{{SHA256: digestOld}}},
		},
		latest: map[string]*pypi.Release{
			"msgspec": {Name: "msgspec", Version: "0.19.0"},
		},
	}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{registryPackage("msgspec", "0.19.0", digestGood)}}

	report := Run(context.Background(), index, lf, Options{})
	if got := findingsOf(t, report, "msgspec"); !slices.Contains(got, FindingDrift) {
		t.Errorf("findings = %v, want drift", got)
	}
}

func TestRun_NonSHA256HashIsNotDrift(t *testing.T) {
	index := &fakeIndex{
		releases: map[string]*pypi.Release{
			"msgspec@0.19.0": {Name: "msgspec", Version: "0.19.0", Files: []pypi.File{{SHA256: digestGood}}},
		},
		latest: map[string]*pypi.Release{
			"msgspec": {Name: "msgspec", Version: "0.19.0"},
		},
	}
	// The index only advertises sha256, so a sha512-recorded artifact
	// can never match the served set and must not count as drift.
	pkg := registryPackage("msgspec", "0.19.0", digestGood)
	pkg.Sdist.Hash = lockfile.Hash("sha512:" + digestOld + digestOld)
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{pkg}}

	report := Run(context.Background(), index, lf, Options{})
	if got := findingsOf(t, report, "msgspec"); slices.Contains(got, FindingDrift) {
		t.Errorf("findings = %v, sha512 hash should be skipped, not drifted", got)
	}
}

func TestRun_YankedRelease(t *testing.T) {
	index := &fakeIndex{
		releases: map[string]*pypi.Release{
			"msgspec@0.19.0": {
				Name: "msgspec", Version: "0.19.0",
				Yanked: true, YankedReason: "broken wheel",
				Files: []pypi.File{{SHA256: digestGood}},
			},
		},
		latest: map[string]*pypi.Release{
			"msgspec": {Name: "msgspec", Version: "0.19.0"},
		},
	}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{registryPackage("msgspec", "0.19.0", digestGood)}}

	report := Run(context.Background(), index, lf, Options{})
	if got := findingsOf(t, report, "msgspec"); !slices.Contains(got, FindingYanked) {
		t.Errorf("findings = %v, want yanked", got)
	}
	if report.Entries[0].Detail != "broken wheel" {
		t.Errorf("Detail = %q", report.Entries[0].Detail)
	}
}

func TestRun_Outdated(t *testing.T) {
	index := &fakeIndex{
		releases: map[string]*pypi.Release{
			"msgspec@0.19.0": {Name: "msgspec", Version: "0.19.0", Files: []pypi.File{{SHA256: digestGood}}},
		},
		latest: map[string]*pypi.Release{
			"msgspec": {Name: "msgspec", Version: "0.20.0"},
		},
	}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{registryPackage("msgspec", "0.19.0", digestGood)}}

	report := Run(context.Background(), index, lf, Options{})
	entry := report.Entries[0]
	if !slices.Contains(entry.Findings, FindingOutdated) || entry.Latest != "0.20.0" {
		t.Errorf("entry = %+v, want outdated with latest 0.20.0", entry)
	}
	// Outdated alone doesn't flag the pin.
	if report.Flagged != 0 || report.Outdated != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_PrereleaseNotOutdated(t *testing.T) {
	index := &fakeIndex{
		releases: map[string]*pypi.Release{
			"msgspec@0.19.0": {Name: "msgspec", Version: "0.19.0", Files: []pypi.File{{SHA256: digestGood}}},
		},
		latest: map[string]*pypi.Release{
			"msgspec": {Name: "msgspec", Version: "0.20.0rc1"},
		},
	}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{registryPackage("msgspec", "0.19.0", digestGood)}}

	report := Run(context.Background(), index, lf, Options{})
	if got := findingsOf(t, report, "msgspec"); slices.Contains(got, FindingOutdated) {
		t.Errorf("findings = %v, prerelease should not count as newer", got)
	}
}

func TestRun_IndexErrorDegrades(t *testing.T) {
	index := &fakeIndex{err: errors.New("index down")}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{
		registryPackage("msgspec", "0.19.0", digestGood),
		registryPackage("python-dotenv", "1.0.1", digestOld),
	}}

	report := Run(context.Background(), index, lf, Options{Jobs: 2})
	if report.Errors != 2 || len(report.Entries) != 2 {
		t.Errorf("report = %+v, want 2 error entries", report)
	}
}

func TestRun_SkipsLocalPackages(t *testing.T) {
	index := &fakeIndex{releases: map[string]*pypi.Release{}, latest: map[string]*pypi.Release{}}
	lf := &lockfile.Lockfile{Version: 1, Packages: []lockfile.Package{
		{Name: "workspace", Version: "0.1.0", Source: lockfile.Source{Editable: "."}},
	}}

	report := Run(context.Background(), index, lf, Options{})
	if len(report.Entries) != 0 {
		t.Errorf("entries = %+v, want none for local packages", report.Entries)
	}
}
