// Package schema reports GraphQL type definitions, operations and the code
// that serves or consumes them.
package schema

import (
	"context"

	"structscope/internal/analyzer"
)

var (
	SchemaExtensions = []string{".graphql", ".gql"}
	SourceExtensions = []string{".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs"}
)

const (
	KindObject      = "OBJECT"
	KindInterface   = "INTERFACE"
	KindUnion       = "UNION"
	KindEnum        = "ENUM"
	KindScalar      = "SCALAR"
	KindInputObject = "INPUT_OBJECT"

	OpQuery        = "query"
	OpMutation     = "mutation"
	OpSubscription = "subscription"

	// Where an operation was seen.
	FromSchema   = "schema"
	FromDocument = "document"
	FromHook     = "hook"
)

type Argument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Field struct {
	Name string     `json:"name"`
	Type string     `json:"type"`
	Args []Argument `json:"args,omitempty"`
}

type Type struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Fields        []Field  `json:"fields,omitempty"`
	Interfaces    []string `json:"interfaces,omitempty"`
	PossibleTypes []string `json:"possibleTypes,omitempty"`
	EnumValues    []string `json:"enumValues,omitempty"`
	File          string   `json:"filePath"`
	Line          int      `json:"line"`
}

type Operation struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
	File   string `json:"filePath"`
	Line   int    `json:"line"`
}

// Server is a GraphQL server construction site.
type Server struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	File string `json:"filePath"`
	Line int    `json:"line"`
}

// Resolver is a resolver map. Fields lists the root fields it implements,
// keyed by root type name.
type Resolver struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Fields map[string][]string `json:"fields,omitempty"`
	File   string              `json:"filePath"`
	Line   int                 `json:"line"`
}

type Result struct {
	analyzer.Result
	Schemas       []Server    `json:"schemas"`
	Resolvers     []Resolver  `json:"resolvers"`
	Types         []Type      `json:"types"`
	Operations    []Operation `json:"operations"`
	Queries       []string    `json:"queries"`
	Mutations     []string    `json:"mutations"`
	Subscriptions []string    `json:"subscriptions"`
	Issues        []string    `json:"issues"`
}

// fileSchema is what one file contributes.
type fileSchema struct {
	schemas    []Server
	resolvers  []Resolver
	types      []Type
	operations []Operation
	warnings   []string
}

type Analyzer struct {
	*analyzer.Base
}

func New(opts ...analyzer.Option) (*Analyzer, error) {
	b, err := analyzer.NewBase("schema", opts...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{Base: b}, nil
}

func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*Result, error) {
	if err := analyzer.CheckPaths(paths); err != nil {
		return nil, err
	}
	files := analyzer.FilterFiles(paths, append(append([]string{}, SchemaExtensions...), SourceExtensions...))
	ctx, done := a.Begin(ctx, len(files))
	res := &Result{
		Result:        a.NewResult(),
		Schemas:       []Server{},
		Resolvers:     []Resolver{},
		Types:         []Type{},
		Operations:    []Operation{},
		Queries:       []string{},
		Mutations:     []string{},
		Subscriptions: []string{},
	}
	defer done(&res.Result)

	outcomes := analyzer.ProcessBatch(ctx, files, a.BatchSize(), func(ctx context.Context, p string) (fileSchema, error) {
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return fileSchema{}, err
		}
		if analyzer.SupportsFile(p, SchemaExtensions) {
			return ParseSDL(p, content), nil
		}
		return ScanSource(p, analyzer.RemoveComments(content)), nil
	})
	for i, o := range outcomes {
		a.Progress(i+1, len(files), "Analyzed "+files[i])
		if o.Err != nil {
			res.AddError("Failed to analyze %s: %v", files[i], o.Err)
			continue
		}
		res.Schemas = append(res.Schemas, o.Value.schemas...)
		res.Resolvers = append(res.Resolvers, o.Value.resolvers...)
		res.Types = append(res.Types, o.Value.types...)
		res.Operations = append(res.Operations, o.Value.operations...)
		res.Warnings = append(res.Warnings, o.Value.warnings...)
	}
	for _, op := range res.Operations {
		switch op.Kind {
		case OpQuery:
			res.Queries = append(res.Queries, op.Name)
		case OpMutation:
			res.Mutations = append(res.Mutations, op.Name)
		case OpSubscription:
			res.Subscriptions = append(res.Subscriptions, op.Name)
		}
	}

	res.Issues = Validate(res)
	for _, is := range res.Issues {
		res.AddWarning("%s", is)
	}
	res.Metadata["totalTypes"] = len(res.Types)
	res.Metadata["totalResolvers"] = len(res.Resolvers)
	res.Metadata["totalOperations"] = len(res.Operations)
	res.Metadata["issueCount"] = len(res.Issues)
	analyzer.ValidateResult(&res.Result)
	return res, nil
}
