// Package graph holds the cycle checks run over dependency graphs: cycle
// detection with rotation-insensitive deduplication, "would this edge close a
// loop" queries and path enumeration.
package graph

import (
	"slices"
	"strings"
)

// Edge is a directed dependency from Source to Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// Graph is an ordered node list plus edges. Traversals follow node order for
// start points and edge insertion order for neighbors, so results are stable.
type Graph struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

func New(nodes []string, edges []Edge) *Graph {
	return &Graph{Nodes: nodes, Edges: edges}
}

func (g *Graph) adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

func (g *Graph) hasNode(id string) bool {
	return slices.Contains(g.Nodes, id)
}

// DetectCycles returns every distinct cycle, each closed by repeating its
// first node. Rotations of one loop are reported once, as first found.
func (g *Graph) DetectCycles() [][]string {
	adj := g.adjacency()
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var path []string
	var found [][]string

	var dfs func(n string)
	dfs = func(n string) {
		visited[n] = true
		onStack[n] = true
		path = append(path, n)
		for _, next := range adj[n] {
			if !visited[next] {
				dfs(next)
				continue
			}
			if onStack[next] {
				idx := slices.Index(path, next)
				cycle := append(slices.Clone(path[idx:]), next)
				found = append(found, cycle)
			}
		}
		onStack[n] = false
		path = path[:len(path)-1]
	}
	for _, n := range g.Nodes {
		if !visited[n] {
			dfs(n)
		}
	}
	return dedupeCycles(found)
}

func dedupeCycles(cycles [][]string) [][]string {
	seen := map[string]bool{}
	out := [][]string{}
	for _, c := range cycles {
		sig := Signature(c)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, c)
	}
	return out
}

// NormalizeCycle drops a repeated closing node and rotates the loop so the
// smallest id comes first.
func NormalizeCycle(cycle []string) []string {
	c := slices.Clone(cycle)
	if len(c) > 1 && c[0] == c[len(c)-1] {
		c = c[:len(c)-1]
	}
	if len(c) == 0 {
		return []string{}
	}
	minIdx := 0
	for i, id := range c {
		if id < c[minIdx] {
			minIdx = i
		}
	}
	return append(c[minIdx:], c[:minIdx]...)
}

// Signature identifies a cycle independent of where it was entered.
func Signature(cycle []string) string {
	return strings.Join(NormalizeCycle(cycle), "->")
}

// WouldCreateCycle reports whether adding source→target leaves the graph
// with at least one cycle. The receiver is not modified.
func (g *Graph) WouldCreateCycle(source, target string) bool {
	nodes := slices.Clone(g.Nodes)
	for _, id := range []string{source, target} {
		if !slices.Contains(nodes, id) {
			nodes = append(nodes, id)
		}
	}
	edges := append(slices.Clone(g.Edges), Edge{Source: source, Target: target, Kind: "candidate"})
	return len(New(nodes, edges).DetectCycles()) > 0
}

// FindAllPaths lists every simple path from start to end.
func (g *Graph) FindAllPaths(start, end string) [][]string {
	paths := [][]string{}
	if !g.hasNode(start) || !g.hasNode(end) {
		return paths
	}
	adj := g.adjacency()
	visited := map[string]bool{}
	var current []string

	var dfs func(n string)
	dfs = func(n string) {
		visited[n] = true
		current = append(current, n)
		if n == end {
			paths = append(paths, slices.Clone(current))
		} else {
			for _, next := range adj[n] {
				if !visited[next] {
					dfs(next)
				}
			}
		}
		// Both restores run on every exit, the found branch included.
		visited[n] = false
		current = current[:len(current)-1]
	}
	dfs(start)
	return paths
}
