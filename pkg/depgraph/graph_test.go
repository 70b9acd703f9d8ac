package depgraph

import (
	"slices"
	"testing"
)

// chain builds a -> b -> c with an extra root r -> b.
func chain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"a", "b", "c", "r"} {
		if err := g.AddNode(Node{ID: id, Name: id, Version: "1.0"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "r", To: "b"}} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestGraph_AddNode(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "x"}); err == nil {
		t.Error("duplicate node should fail")
	}
	if err := g.AddNode(Node{}); err == nil {
		t.Error("empty ID should fail")
	}
}

func TestGraph_AddEdge(t *testing.T) {
	g := chain(t)
	if err := g.AddEdge(Edge{From: "a", To: "missing"}); err == nil {
		t.Error("edge to unknown node should fail")
	}

	// Duplicate edges are dropped, not doubled.
	before := g.EdgeCount()
	if err := g.AddEdge(Edge{From: "a", To: "b"}); err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != before {
		t.Errorf("EdgeCount = %d, want %d", g.EdgeCount(), before)
	}
}

func TestGraph_Traversal(t *testing.T) {
	g := chain(t)

	if got := g.Children("b"); !slices.Equal(got, []string{"c"}) {
		t.Errorf("Children(b) = %v", got)
	}
	if got := g.Parents("b"); !slices.Equal(got, []string{"a", "r"}) {
		t.Errorf("Parents(b) = %v", got)
	}
	if got := g.Roots(); !slices.Equal(got, []string{"a", "r"}) {
		t.Errorf("Roots = %v", got)
	}
	if got := g.Reachable("a"); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Reachable(a) = %v", got)
	}
	if got := g.Reachable("ghost"); got != nil {
		t.Errorf("Reachable(ghost) = %v, want nil", got)
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := chain(t)

	sub, err := g.Subgraph("a")
	if err != nil {
		t.Fatal(err)
	}
	if sub.NodeCount() != 3 || sub.EdgeCount() != 2 {
		t.Errorf("subgraph has %d nodes, %d edges", sub.NodeCount(), sub.EdgeCount())
	}
	if _, ok := sub.Node("r"); ok {
		t.Error("r should not be in the subgraph of a")
	}

	if _, err := g.Subgraph("ghost"); err == nil {
		t.Error("subgraph of unknown node should fail")
	}
}

func TestGraph_TopoOrder(t *testing.T) {
	g := chain(t)
	order := g.TopoOrder()

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	// Dependencies come before their dependents.
	if pos["c"] > pos["b"] || pos["b"] > pos["a"] || pos["b"] > pos["r"] {
		t.Errorf("order = %v", order)
	}
	if len(order) != 4 {
		t.Errorf("order has %d entries, want 4", len(order))
	}
}

func TestGraph_Cycles(t *testing.T) {
	g := chain(t)
	if cycles := g.Cycles(); len(cycles) != 0 {
		t.Fatalf("acyclic graph reported cycles: %v", cycles)
	}

	// Close the loop: c -> a.
	if err := g.AddEdge(Edge{From: "c", To: "a"}); err != nil {
		t.Fatal(err)
	}
	cycles := g.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %v, want one", cycles)
	}
	if !slices.Equal(cycles[0], []string{"a", "b", "c"}) {
		t.Errorf("cycle = %v, want [a b c]", cycles[0])
	}

	// Topological order still covers every node.
	if got := len(g.TopoOrder()); got != 4 {
		t.Errorf("TopoOrder covers %d nodes, want 4", got)
	}
}
