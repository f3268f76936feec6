package graph

import (
	"errors"
	"slices"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCyclic is returned by TopologicalOrder when no order exists.
var ErrCyclic = errors.New("graph: cyclic")

// directed mirrors g as a gonum graph. Self edges are reported separately
// because simple graphs reject them.
func (g *Graph) directed() (*simple.DirectedGraph, []string, map[string]bool) {
	ids := map[string]int64{}
	names := []string{}
	dg := simple.NewDirectedGraph()
	add := func(id string) int64 {
		if n, ok := ids[id]; ok {
			return n
		}
		n := int64(len(names))
		ids[id] = n
		names = append(names, id)
		dg.AddNode(simple.Node(n))
		return n
	}
	for _, n := range g.Nodes {
		add(n)
	}
	selfLoops := map[string]bool{}
	for _, e := range g.Edges {
		f, t := add(e.Source), add(e.Target)
		if f == t {
			selfLoops[e.Source] = true
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
	}
	return dg, names, selfLoops
}

// StronglyConnected returns the components that contain a loop: more than
// one node, or a single node with an edge to itself. Components and their
// members are sorted.
func (g *Graph) StronglyConnected() [][]string {
	dg, names, selfLoops := g.directed()
	out := [][]string{}
	for _, comp := range topo.TarjanSCC(dg) {
		if len(comp) == 1 && !selfLoops[names[comp[0].ID()]] {
			continue
		}
		members := make([]string, 0, len(comp))
		for _, n := range comp {
			members = append(members, names[n.ID()])
		}
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return slices.Compare(out[i], out[j]) < 0 })
	return out
}

// TopologicalOrder returns nodes so that every edge points forward.
func (g *Graph) TopologicalOrder() ([]string, error) {
	dg, names, selfLoops := g.directed()
	if len(selfLoops) > 0 {
		return nil, ErrCyclic
	}
	sorted, err := topo.SortStabilized(dg, func(nodes []gonum.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, ErrCyclic
	}
	out := make([]string, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, names[n.ID()])
	}
	return out, nil
}
