// Package source extracts imports, exports and declarations from JavaScript
// and TypeScript files. Extraction is best effort: unusual constructs are
// skipped, never reported as errors.
package source

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
)

// Import kinds recorded on ImportRef.
const (
	KindImport   = "import"
	KindRequire  = "require"
	KindDynamic  = "dynamic"
	KindType     = "type"
	KindReexport = "reexport"
)

type ImportRef struct {
	Specifier string `json:"specifier"`
	Kind      string `json:"kind"`
	Line      int    `json:"line"`
}

type Function struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Async  bool     `json:"async"`
	Line   int      `json:"line"`
}

type Class struct {
	Name    string   `json:"name"`
	Extends string   `json:"extends,omitempty"`
	Methods []string `json:"methods"`
	Line    int      `json:"line"`
}

type Variable struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Exported bool   `json:"exported"`
	Line     int    `json:"line"`
}

type Property struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
}

type Interface struct {
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
	Line       int        `json:"line"`
}

type TypeAlias struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	Line       int    `json:"line"`
}

type Enum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
	Line   int      `json:"line"`
}

// Extraction is everything pulled out of one file. The TypeScript-only
// collections stay empty for JavaScript.
type Extraction struct {
	Path       string      `json:"path"`
	Language   string      `json:"language"`
	Imports    []string    `json:"imports"`
	ImportRefs []ImportRef `json:"importRefs"`
	Exports    []string    `json:"exports"`
	Functions  []Function  `json:"functions"`
	Classes    []Class     `json:"classes"`
	Variables  []Variable  `json:"variables"`
	Interfaces []Interface `json:"interfaces,omitempty"`
	Types      []TypeAlias `json:"types,omitempty"`
	Enums      []Enum      `json:"enums,omitempty"`
}

// Extractor turns one file's text into an Extraction.
type Extractor interface {
	Language() string
	Extensions() []string
	Extract(ctx context.Context, path string, content []byte) *Extraction
}

// Registry picks an Extractor by file extension.
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// DefaultRegistry covers JavaScript, TypeScript and TSX.
func DefaultRegistry(opts ...Option) *Registry {
	return NewRegistry(NewJavaScript(opts...), NewTypeScript(opts...), NewTSX(opts...))
}

// Register adds e, replacing any extractor already bound to its extensions.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

func (r *Registry) ForFile(path string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Extensions lists every registered extension, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
