// Package depgraph builds dependency graphs from lockfiles.
//
// A [Graph] holds one node per locked package record and one directed
// edge per dependency entry, after platform markers have been resolved
// against a target environment. Nodes are keyed by normalized package
// name; when the resolver forked a package into multiple versions, the
// forked records are keyed as name@version instead so both survive.
//
// Graphs are built once with [Build] and then read: traversal helpers
// ([Graph.Children], [Graph.Parents], [Graph.Roots], [Graph.TopoOrder])
// return deterministic, name-sorted results so output is stable across
// runs. Cycles are legal in Python dependency metadata and are reported
// by [Graph.Cycles] rather than rejected.
package depgraph
