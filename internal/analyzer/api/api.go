// Package api pairs server route declarations with client HTTP calls.
package api

import (
	"context"
	"strings"

	"structscope/internal/analyzer"
)

var (
	SourceExtensions  = []string{".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs"}
	OpenAPIExtensions = []string{".yaml", ".yml", ".json"}
)

type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Location string `json:"location"`
}

type Response struct {
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
}

// Endpoint is a server-side route. Style records the declaration idiom:
// chained, fluent, decorator or openapi.
type Endpoint struct {
	ID         string      `json:"id"`
	Method     string      `json:"method"`
	Path       string      `json:"path"`
	Handler    string      `json:"handler,omitempty"`
	File       string      `json:"filePath"`
	Line       int         `json:"line"`
	Style      string      `json:"style"`
	Parameters []Parameter `json:"parameters"`
	Responses  []Response  `json:"responses"`
}

// Call is a client-side HTTP request site.
type Call struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	URL    string `json:"url"`
	File   string `json:"filePath"`
	Line   int    `json:"line"`
	Client string `json:"client"`
}

type Match struct {
	Endpoint Endpoint `json:"endpoint"`
	Calls    []Call   `json:"calls"`
	Matched  bool     `json:"matched"`
}

// Mismatch is an advisory: a call whose path looks like, but does not
// exactly fit, one or more endpoints.
type Mismatch struct {
	Call   Call     `json:"call"`
	Issues []string `json:"issues"`
}

type Result struct {
	analyzer.Result
	Endpoints         []Endpoint `json:"endpoints"`
	Calls             []Call     `json:"calls"`
	Matches           []Match    `json:"matches"`
	OrphanedEndpoints []Endpoint `json:"orphanedEndpoints"`
	OrphanedCalls     []Call     `json:"orphanedCalls"`
	Mismatches        []Mismatch `json:"mismatches"`
}

type fileAPI struct {
	endpoints []Endpoint
	calls     []Call
}

type Analyzer struct {
	*analyzer.Base
}

func New(opts ...analyzer.Option) (*Analyzer, error) {
	b, err := analyzer.NewBase("api", opts...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{Base: b}, nil
}

func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*Result, error) {
	if err := analyzer.CheckPaths(paths); err != nil {
		return nil, err
	}
	files := analyzer.FilterFiles(paths, append(append([]string{}, SourceExtensions...), OpenAPIExtensions...))
	ctx, done := a.Begin(ctx, len(files))
	res := &Result{
		Result:            a.NewResult(),
		Endpoints:         []Endpoint{},
		Calls:             []Call{},
		Matches:           []Match{},
		OrphanedEndpoints: []Endpoint{},
		OrphanedCalls:     []Call{},
		Mismatches:        []Mismatch{},
	}
	defer done(&res.Result)

	a.Progress(0, len(files), "Starting API analysis")
	outcomes := analyzer.ProcessBatch(ctx, files, a.BatchSize(), func(ctx context.Context, p string) (fileAPI, error) {
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return fileAPI{}, err
		}
		if analyzer.SupportsFile(p, OpenAPIExtensions) {
			if !looksLikeOpenAPI(content) {
				return fileAPI{}, nil
			}
			eps, err := OpenAPIEndpoints(p, content)
			return fileAPI{endpoints: eps}, err
		}
		clean := analyzer.RemoveComments(content)
		return fileAPI{endpoints: ExtractEndpoints(clean, p), calls: ExtractCalls(clean, p)}, nil
	})
	for i, o := range outcomes {
		a.Progress(i+1, len(files), "Analyzed "+files[i])
		if o.Err != nil {
			res.AddError("Failed to analyze %s: %v", files[i], o.Err)
			continue
		}
		res.Endpoints = append(res.Endpoints, o.Value.endpoints...)
		res.Calls = append(res.Calls, o.Value.calls...)
	}

	res.Matches = MatchAPIs(res.Endpoints, res.Calls)
	res.OrphanedEndpoints = orphanedEndpoints(res.Matches)
	res.OrphanedCalls = orphanedCalls(res.Calls, res.Matches)
	res.Mismatches = FindMismatches(res.Calls, res.Endpoints)

	matched := 0
	for _, m := range res.Matches {
		if m.Matched {
			matched++
		}
	}
	res.Metadata["totalEndpoints"] = len(res.Endpoints)
	res.Metadata["totalCalls"] = len(res.Calls)
	res.Metadata["matchedAPIs"] = matched
	res.Metadata["orphanedEndpoints"] = len(res.OrphanedEndpoints)
	res.Metadata["orphanedCalls"] = len(res.OrphanedCalls)
	res.Metadata["mismatchCount"] = len(res.Mismatches)
	analyzer.ValidateResult(&res.Result)
	return res, nil
}

func orphanedEndpoints(matches []Match) []Endpoint {
	out := []Endpoint{}
	for _, m := range matches {
		if !m.Matched {
			out = append(out, m.Endpoint)
		}
	}
	return out
}

func orphanedCalls(calls []Call, matches []Match) []Call {
	used := map[string]bool{}
	for _, m := range matches {
		for _, c := range m.Calls {
			used[c.ID] = true
		}
	}
	out := []Call{}
	for _, c := range calls {
		if !used[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func pathParameters(path string) []Parameter {
	params := []Parameter{}
	for _, seg := range strings.Split(path, "/") {
		if name, ok := strings.CutPrefix(seg, ":"); ok && name != "" {
			params = append(params, Parameter{Name: name, Type: "string", Required: true, Location: "path"})
		}
	}
	return params
}
