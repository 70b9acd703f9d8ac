// Package lockfile parses and validates uv-format dependency lockfiles.
//
// A lockfile is a generated, deterministic record of exact dependency
// versions and artifact hashes resolved for a project. It carries no
// behavior of its own: this package reads the TOML schema into typed
// records and checks the structural invariants the consuming tooling
// relies on (pinned hashes, resolvable dependency references, coherent
// wheel filenames).
//
// The schema is a top-level format version, optional resolution markers
// partitioning target environments, and repeated package blocks, each with
// a version, a source (registry, editable, directory, path, git, url or
// virtual), optional sdist/wheel artifact lists (url, hash, size) and
// declared dependencies.
package lockfile
