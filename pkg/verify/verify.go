package verify

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lockview/lockview/pkg/errors"
	"github.com/lockview/lockview/pkg/lockfile"
	"github.com/lockview/lockview/pkg/markers"
)

// DefaultJobs is the worker pool size when Options.Jobs is zero.
const DefaultJobs = 4

// Status classifies the outcome of verifying one artifact.
type Status string

const (
	// StatusOK means the recomputed digest matches the recorded hash.
	StatusOK Status = "ok"
	// StatusMismatch means the digest differs from the recorded hash.
	StatusMismatch Status = "mismatch"
	// StatusMissing means the artifact could not be found (no local
	// file, or the URL answered 404).
	StatusMissing Status = "missing"
	// StatusSkipped marks artifacts that were not checked: local
	// packages, or records with no hash to compare against.
	StatusSkipped Status = "skipped"
	// StatusError covers I/O and network failures.
	StatusError Status = "error"
)

// Result is the outcome of verifying one artifact.
type Result struct {
	Package  string `json:"package"`
	Version  string `json:"version"`
	Filename string `json:"filename"`
	Status   Status `json:"status"`
	// Code carries the machine-readable failure code (HASH_MISMATCH,
	// SIZE_MISMATCH, MISSING_ARTIFACT, ...) for non-ok results.
	Code errors.Code `json:"code,omitempty"`
	// Expected and Actual hold hex digests when Status is mismatch.
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Report aggregates the results of a verification run.
type Report struct {
	Results  []Result `json:"results"`
	OK       int      `json:"ok"`
	Mismatch int      `json:"mismatch"`
	Missing  int      `json:"missing"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
}

// Failed reports whether any artifact failed verification.
func (r *Report) Failed() bool {
	return r.Mismatch > 0 || r.Missing > 0 || r.Errors > 0
}

// Total returns the number of artifacts examined.
func (r *Report) Total() int { return len(r.Results) }

// Options configures a verification run.
type Options struct {
	// DistDir enables local mode: artifacts are read from this
	// directory, matched by filename. When empty, artifacts are
	// streamed from their recorded URLs.
	DistDir string
	// Jobs bounds the worker pool. Zero means DefaultJobs.
	Jobs int
	// Packages restricts verification to the named packages
	// (normalized). Empty means all.
	Packages []string
	// Env, when set, restricts each package to the single artifact an
	// installer would pick for that environment. A package with nothing
	// compatible is reported as missing.
	Env *markers.Environment
	// Progress, when set, is called after each artifact completes.
	Progress func(Result)
}

// Verifier recomputes artifact digests and compares them to a lockfile.
type Verifier struct {
	client *http.Client
}

// New returns a Verifier using the given HTTP client for remote mode.
// Pass nil to use http.DefaultClient.
func New(client *http.Client) *Verifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Verifier{client: client}
}

type job struct {
	pkg      *lockfile.Package
	artifact *lockfile.Artifact
}

// Run verifies every artifact of the lockfile and returns the report.
// The error return is reserved for setup problems and context
// cancellation; per-artifact failures land in the report.
func (v *Verifier) Run(ctx context.Context, lf *lockfile.Lockfile, opts Options) (*Report, error) {
	only := make(map[string]bool, len(opts.Packages))
	for _, name := range opts.Packages {
		only[lockfile.NormalizeName(name)] = true
	}

	var jobs []job
	report := &Report{}
	for i := range lf.Packages {
		pkg := &lf.Packages[i]
		if len(only) > 0 && !only[lockfile.NormalizeName(pkg.Name)] {
			continue
		}
		if pkg.IsLocal() {
			continue
		}
		if pkg.Sdist == nil && len(pkg.Wheels) == 0 {
			report.add(Result{
				Package: pkg.Name,
				Version: pkg.Version,
				Status:  StatusMissing,
				Code:    errors.ErrCodeMissingArtifact,
				Detail:  "registry package has no artifacts recorded",
			}, opts.Progress)
			continue
		}
		if opts.Env != nil {
			artifact, err := pkg.SelectArtifact(*opts.Env)
			if err != nil {
				report.add(Result{
					Package: pkg.Name,
					Version: pkg.Version,
					Status:  StatusMissing,
					Code:    errors.GetCode(err),
					Detail:  errors.UserMessage(err),
				}, opts.Progress)
				continue
			}
			jobs = append(jobs, job{pkg: pkg, artifact: artifact})
			continue
		}
		if pkg.Sdist != nil {
			jobs = append(jobs, job{pkg: pkg, artifact: pkg.Sdist})
		}
		for w := range pkg.Wheels {
			jobs = append(jobs, job{pkg: pkg, artifact: &pkg.Wheels[w]})
		}
	}

	workers := opts.Jobs
	if workers <= 0 {
		workers = DefaultJobs
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	jobCh := make(chan job)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				res := v.verifyOne(ctx, j, opts)
				mu.Lock()
				report.add(res, opts.Progress)
				mu.Unlock()
			}
		}()
	}

	var cancelled error
feed:
	for _, j := range jobs {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobCh <- j:
		}
	}
	close(jobCh)
	wg.Wait()

	if cancelled != nil {
		return report, errors.Wrap(errors.ErrCodeTimeout, cancelled, "verification interrupted")
	}

	sort.Slice(report.Results, func(i, k int) bool {
		a, b := report.Results[i], report.Results[k]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		return a.Filename < b.Filename
	})
	return report, nil
}

func (r *Report) add(res Result, progress func(Result)) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusOK:
		r.OK++
	case StatusMismatch:
		r.Mismatch++
	case StatusMissing:
		r.Missing++
	case StatusSkipped:
		r.Skipped++
	case StatusError:
		r.Errors++
	}
	if progress != nil {
		progress(res)
	}
}

func (v *Verifier) verifyOne(ctx context.Context, j job, opts Options) Result {
	res := Result{
		Package:  j.pkg.Name,
		Version:  j.pkg.Version,
		Filename: j.artifact.Filename(),
	}

	if j.artifact.Hash == "" {
		res.Status = StatusSkipped
		res.Detail = "no hash recorded"
		return res
	}
	if err := j.artifact.Hash.Validate(); err != nil {
		res.Status = StatusError
		res.Code = errors.GetCode(err)
		res.Detail = errors.UserMessage(err)
		return res
	}

	var body io.ReadCloser
	var err error
	if opts.DistDir != "" {
		body, err = openLocal(opts.DistDir, res.Filename)
	} else {
		body, err = v.fetch(ctx, j.artifact.URL)
	}
	if err != nil {
		if errors.Is(err, errors.ErrCodeMissingArtifact) {
			res.Status = StatusMissing
		} else {
			res.Status = StatusError
		}
		res.Code = errors.GetCode(err)
		res.Detail = errors.UserMessage(err)
		return res
	}
	defer body.Close()

	digest, size, err := digestOf(j.artifact.Hash.Algorithm(), body)
	if err != nil {
		res.Status = StatusError
		res.Detail = err.Error()
		return res
	}

	if !j.artifact.Hash.Matches(digest) {
		res.Status = StatusMismatch
		res.Code = errors.ErrCodeHashMismatch
		res.Expected = j.artifact.Hash.Digest()
		res.Actual = digest
		return res
	}
	if j.artifact.Size > 0 && size != j.artifact.Size {
		res.Status = StatusMismatch
		res.Code = errors.ErrCodeSizeMismatch
		res.Detail = fmt.Sprintf("size %d differs from recorded %d", size, j.artifact.Size)
		return res
	}

	res.Status = StatusOK
	return res
}

func openLocal(dir, filename string) (io.ReadCloser, error) {
	if filename == "" {
		return nil, errors.New(errors.ErrCodeMissingArtifact, "artifact has no filename")
	}
	f, err := os.Open(filepath.Join(dir, filename))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeMissingArtifact, "%s not found in %s", filename, dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", filename)
	}
	return f, nil
}

func (v *Verifier) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeMissingArtifact, "artifact has no URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "request %s", url)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, errors.New(errors.ErrCodeMissingArtifact, "%s answered 404", url)
	default:
		resp.Body.Close()
		return nil, errors.New(errors.ErrCodeNetwork, "%s answered %d", url, resp.StatusCode)
	}
}

// digestOf streams r through the named hash, returning the hex digest
// and the byte count.
func digestOf(algorithm string, r io.Reader) (string, int64, error) {
	var h hash.Hash
	switch algorithm {
	case "sha256":
		h = sha256.New()
	case "sha384":
		h = sha512.New384()
	case "sha512":
		h = sha512.New()
	default:
		return "", 0, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
