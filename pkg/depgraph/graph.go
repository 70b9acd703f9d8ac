package depgraph

import (
	"slices"

	"github.com/lockview/lockview/pkg/errors"
)

// Node is a locked package record placed in the graph.
type Node struct {
	// ID is the normalized package name, or name@version when the
	// lockfile records multiple versions of the same name.
	ID      string
	Name    string
	Version string
	// Source describes where the package comes from: "registry",
	// "editable", "git", and so on.
	Source string
	// Local marks packages that are part of the workspace rather than
	// fetched artifacts.
	Local bool
}

// Edge is a directed dependency: From requires To.
type Edge struct {
	From string
	To   string
	// Extra names the optional group that pulled this edge in, or the
	// dev group prefixed with "dev:". Empty for mandatory dependencies.
	Extra string
}

// Graph is a directed dependency graph. The zero value is not usable;
// construct with [New] or [Build].
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode inserts a node. The ID must be non-empty and unused.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "node ID must not be empty")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate node %q", n.ID)
	}
	g.nodes[n.ID] = &n
	return nil
}

// AddEdge inserts a directed edge. Both endpoints must already exist.
// Duplicate edges between the same pair are dropped silently.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return errors.New(errors.ErrCodeNotFound, "unknown source node %q", e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return errors.New(errors.ErrCodeNotFound, "unknown target node %q", e.To)
	}
	if slices.Contains(g.outgoing[e.From], e.To) {
		return nil
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given ID, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// Edges returns all edges sorted by (From, To).
func (g *Graph) Edges() []Edge {
	out := slices.Clone(g.edges)
	slices.SortFunc(out, func(a, b Edge) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs this node depends on, sorted.
func (g *Graph) Children(id string) []string {
	out := slices.Clone(g.outgoing[id])
	slices.Sort(out)
	return out
}

// Parents returns the IDs that depend on this node, sorted.
func (g *Graph) Parents(id string) []string {
	out := slices.Clone(g.incoming[id])
	slices.Sort(out)
	return out
}

// Roots returns the IDs of nodes nothing depends on, sorted. For a
// typical project lockfile this is the workspace package itself.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.incoming[id]) == 0 {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	return roots
}

// Reachable returns the set of node IDs reachable from start, including
// start itself, sorted. Unknown start IDs yield an empty result.
func (g *Graph) Reachable(start string) []string {
	if _, ok := g.nodes[start]; !ok {
		return nil
	}
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range g.outgoing[id] {
			if !seen[child] {
				seen[child] = true
				stack = append(stack, child)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Subgraph returns a new graph restricted to the nodes reachable from
// start. Edges between retained nodes are kept.
func (g *Graph) Subgraph(start string) (*Graph, error) {
	if _, ok := g.nodes[start]; !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "package %q is not in the graph", start)
	}
	keep := make(map[string]bool)
	for _, id := range g.Reachable(start) {
		keep[id] = true
	}

	sub := New()
	for id, n := range g.nodes {
		if keep[id] {
			sub.nodes[id] = n
		}
	}
	for _, e := range g.edges {
		if keep[e.From] && keep[e.To] {
			if err := sub.AddEdge(e); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}

// TopoOrder returns node IDs in topological order, dependencies before
// dependents, with name order breaking ties. Nodes on cycles are
// appended at the end in name order rather than omitted.
func (g *Graph) TopoOrder() []string {
	// Kahn's algorithm counting outgoing edges, so leaves (pure
	// dependencies) come first and the workspace root last.
	indeg := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indeg[id] = len(g.outgoing[id])
	}

	var ready []string
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, parent := range g.Parents(id) {
			indeg[parent]--
			if indeg[parent] == 0 {
				ready = insertSorted(ready, parent)
			}
		}
	}

	if len(order) < len(g.nodes) {
		var rest []string
		seen := make(map[string]bool, len(order))
		for _, id := range order {
			seen[id] = true
		}
		for id := range g.nodes {
			if !seen[id] {
				rest = append(rest, id)
			}
		}
		slices.Sort(rest)
		order = append(order, rest...)
	}
	return order
}

func insertSorted(s []string, v string) []string {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

// Cycles returns each dependency cycle as a slice of node IDs, starting
// from the smallest ID in the cycle. Python packaging permits cycles, so
// callers report them rather than fail.
func (g *Graph) Cycles() [][]string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var cycles [][]string
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		stack = append(stack, id)
		for _, child := range g.Children(id) {
			switch color[child] {
			case white:
				visit(child)
			case grey:
				// Back edge: the cycle is the stack suffix from child.
				i := slices.Index(stack, child)
				cycles = append(cycles, rotateToMin(slices.Clone(stack[i:])))
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles
}

func rotateToMin(cycle []string) []string {
	min := 0
	for i, id := range cycle {
		if id < cycle[min] {
			min = i
		}
	}
	return append(cycle[min:], cycle[:min]...)
}
