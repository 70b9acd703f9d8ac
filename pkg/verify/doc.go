// Package verify checks locked artifacts against their recorded hashes.
//
// A [Verifier] walks every artifact in a lockfile and recomputes its
// digest, either from files already on disk (local mode, matched by
// artifact filename in a dist directory) or by streaming the artifact
// URL (remote mode). Work is spread over a bounded pool of workers and
// stops early when the context is cancelled.
//
// Results are collected into a [Report]: one [Result] per artifact with
// a status of ok, mismatch, missing, skipped or error, plus totals.
// Local packages (editable, directory, path, virtual) record no
// artifacts and are skipped rather than failed.
package verify
