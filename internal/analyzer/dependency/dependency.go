// Package dependency builds the import graph of a JavaScript/TypeScript file
// set and reports its cycles.
package dependency

import (
	"context"
	"maps"

	"structscope/internal/analyzer"
	"structscope/internal/extract/source"
	"structscope/internal/graph"
	"structscope/internal/resolve"
)

// Node is one analyzed file.
type Node struct {
	ID           string   `json:"id"`
	Path         string   `json:"path"`
	Language     string   `json:"language"`
	Imports      []string `json:"imports"`
	Exports      []string `json:"exports"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`

	kinds map[string]string
}

type Statistics struct {
	TotalFiles           int `json:"totalFiles"`
	TotalDependencies    int `json:"totalDependencies"`
	CyclicDependencies   int `json:"cyclicDependencies"`
	MaxDepth             int `json:"maxDepth"`
	OrphanFiles          int `json:"orphanFiles"`
	ExternalDependencies int `json:"externalDependencies"`
	StronglyConnected    int `json:"stronglyConnected"`
}

type Result struct {
	analyzer.Result
	Nodes                  []Node       `json:"nodes"`
	Edges                  []graph.Edge `json:"edges"`
	Cycles                 [][]string   `json:"cycles"`
	Statistics             Statistics   `json:"statistics"`
	UnresolvedDependencies []string     `json:"unresolvedDependencies"`
	ExternalModules        []string     `json:"externalModules"`
	LoadOrder              []string     `json:"loadOrder,omitempty"`
}

// Graph returns the analyzed graph for follow-up queries such as
// graph.Graph.WouldCreateCycle.
func (r *Result) Graph() *graph.Graph {
	ids := make([]string, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		ids = append(ids, n.ID)
	}
	return graph.New(ids, r.Edges)
}

type phase string

const (
	phaseParsing   phase = "parsing"
	phaseResolving phase = "resolving"
	phaseCycles    phase = "cycle-detecting"
	phaseDone      phase = "done"
)

// Analyzer runs parse → resolve → cycle detection. Nothing but the file
// cache survives between calls.
type Analyzer struct {
	*analyzer.Base
	registry *source.Registry
}

func New(opts ...analyzer.Option) (*Analyzer, error) {
	b, err := analyzer.NewBase("dependency", opts...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{Base: b, registry: source.DefaultRegistry()}, nil
}

// WithRegistry swaps the extractor registry.
func (a *Analyzer) WithRegistry(r *source.Registry) *Analyzer {
	a.registry = r
	return a
}

func (a *Analyzer) enter(p phase) {
	a.Logger().Debug("dependency: " + string(p))
}

func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*Result, error) {
	if err := analyzer.CheckPaths(paths); err != nil {
		return nil, err
	}
	files := analyzer.FilterFiles(paths, a.registry.Extensions())
	ctx, done := a.Begin(ctx, len(files))
	res := &Result{
		Result:                 a.NewResult(),
		Nodes:                  []Node{},
		Edges:                  []graph.Edge{},
		Cycles:                 [][]string{},
		UnresolvedDependencies: []string{},
		ExternalModules:        []string{},
	}
	defer done(&res.Result)
	res.Metadata["fileCount"] = len(paths)
	res.Metadata["skippedFiles"] = len(paths) - len(files)

	a.enter(phaseParsing)
	outcomes := analyzer.ProcessBatch(ctx, files, a.BatchSize(), func(ctx context.Context, p string) (*source.Extraction, error) {
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		ex, _ := a.registry.ForFile(p)
		return ex.Extract(ctx, p, []byte(content)), nil
	})
	for i, o := range outcomes {
		if o.Err != nil {
			res.AddError("Failed to parse %s: %v", files[i], o.Err)
			continue
		}
		res.Nodes = append(res.Nodes, newNode(o.Value))
		a.Progress(i+1, len(files), "Parsed "+files[i])
	}

	a.enter(phaseResolving)
	a.Progress(len(files), len(files), "Resolving dependencies")
	external := resolveEdges(res)

	a.enter(phaseCycles)
	a.Progress(len(files), len(files), "Detecting circular dependencies")
	g := res.Graph()
	res.Cycles = g.DetectCycles()
	scc := g.StronglyConnected()
	if len(res.Cycles) == 0 {
		if order, err := g.TopologicalOrder(); err == nil {
			res.LoadOrder = order
		}
	}

	res.Statistics = Statistics{
		TotalFiles:           len(res.Nodes),
		TotalDependencies:    len(res.Edges),
		CyclicDependencies:   len(res.Cycles),
		MaxDepth:             maxDepth(res.Nodes, res.Edges),
		OrphanFiles:          orphanCount(res.Nodes),
		ExternalDependencies: external,
		StronglyConnected:    len(scc),
	}
	for _, c := range res.Cycles {
		res.AddWarning("Circular dependency: %s", graph.Signature(c))
	}

	a.enter(phaseDone)
	a.Progress(len(files), len(files), "Dependency analysis complete")
	analyzer.ValidateResult(&res.Result)
	return res, nil
}

func newNode(x *source.Extraction) Node {
	n := Node{
		ID:           x.Path,
		Path:         x.Path,
		Language:     x.Language,
		Imports:      x.Imports,
		Exports:      x.Exports,
		Dependencies: []string{},
		Dependents:   []string{},
		kinds:        map[string]string{},
	}
	for _, ref := range x.ImportRefs {
		if _, ok := n.kinds[ref.Specifier]; !ok {
			n.kinds[ref.Specifier] = ref.Kind
		}
	}
	return n
}

// resolveEdges links nodes whose relative imports resolve inside the file
// set. Package specifiers are recorded once each under ExternalModules; the
// count of distinct ones is returned.
func resolveEdges(res *Result) int {
	index := make(map[string]int, len(res.Nodes))
	for i, n := range res.Nodes {
		index[n.ID] = i
	}
	r := resolve.New(func(p string) bool {
		_, ok := index[p]
		return ok
	})

	external := map[string]bool{}
	unresolved := map[string]bool{}
	seenEdge := map[[2]string]bool{}
	for i := range res.Nodes {
		n := &res.Nodes[i]
		for _, spec := range n.Imports {
			if !resolve.IsRelative(spec) {
				if resolve.IsExternal(spec) && !external[spec] {
					external[spec] = true
					res.ExternalModules = append(res.ExternalModules, resolve.ExternalModule(spec))
				}
				continue
			}
			target, ok := r.Resolve(spec, n.Path)
			if !ok {
				if !unresolved[spec] {
					unresolved[spec] = true
					res.UnresolvedDependencies = append(res.UnresolvedDependencies, spec)
				}
				continue
			}
			key := [2]string{n.ID, target}
			if seenEdge[key] {
				continue
			}
			seenEdge[key] = true
			res.Edges = append(res.Edges, graph.Edge{Source: n.ID, Target: target, Kind: n.kinds[spec]})
			n.Dependencies = append(n.Dependencies, target)
			t := &res.Nodes[index[target]]
			t.Dependents = append(t.Dependents, n.ID)
		}
	}
	return len(external)
}

// maxDepth is the longest dependents chain from any node. Each recursive
// branch gets its own copy of the visited set.
func maxDepth(nodes []Node, edges []graph.Edge) int {
	dependents := map[string][]string{}
	for _, e := range edges {
		dependents[e.Target] = append(dependents[e.Target], e.Source)
	}
	var depth func(id string, visited map[string]bool) int
	depth = func(id string, visited map[string]bool) int {
		if visited[id] {
			return 0
		}
		visited[id] = true
		deps := dependents[id]
		if len(deps) == 0 {
			return 1
		}
		best := 0
		for _, d := range deps {
			best = max(best, depth(d, maps.Clone(visited)))
		}
		return best + 1
	}

	best := 0
	for _, n := range nodes {
		best = max(best, depth(n.ID, map[string]bool{}))
	}
	return best
}

func orphanCount(nodes []Node) int {
	count := 0
	for _, n := range nodes {
		if len(n.Imports) == 0 && len(n.Exports) == 0 {
			count++
		}
	}
	return count
}
