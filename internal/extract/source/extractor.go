package source

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Parser is the Extractor for one grammar. Imports and exports come from
// text patterns; declarations come from tree-sitter with a pattern fallback.
type Parser struct {
	language   string
	extensions []string
	grammar    func() *sitter.Language
	typescript bool
	treeSitter bool
}

type Option func(*Parser)

// WithoutTreeSitter makes the parser use text patterns only.
func WithoutTreeSitter() Option {
	return func(p *Parser) { p.treeSitter = false }
}

func newParser(language string, exts []string, grammar func() *sitter.Language, ts bool, opts []Option) *Parser {
	p := &Parser{
		language:   language,
		extensions: exts,
		grammar:    grammar,
		typescript: ts,
		treeSitter: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewJavaScript(opts ...Option) *Parser {
	return newParser("javascript", []string{".js", ".jsx", ".mjs", ".cjs"}, javascript.GetLanguage, false, opts)
}

func NewTypeScript(opts ...Option) *Parser {
	return newParser("typescript", []string{".ts", ".mts", ".cts"}, typescript.GetLanguage, true, opts)
}

// NewTSX handles .tsx, whose grammar differs from plain TypeScript.
func NewTSX(opts ...Option) *Parser {
	return newParser("typescript", []string{".tsx"}, tsx.GetLanguage, true, opts)
}

func (p *Parser) Language() string     { return p.language }
func (p *Parser) Extensions() []string { return p.extensions }

// Extract never fails; malformed input yields a partial extraction.
func (p *Parser) Extract(ctx context.Context, path string, content []byte) *Extraction {
	text := string(content)
	x := &Extraction{
		Path:      path,
		Language:  p.language,
		Functions: []Function{},
		Classes:   []Class{},
		Variables: []Variable{},
	}
	if p.typescript {
		x.Interfaces = []Interface{}
		x.Types = []TypeAlias{}
		x.Enums = []Enum{}
	}
	x.Imports, x.ImportRefs = extractImports(text)
	x.Exports = extractExports(text, p.typescript)

	if p.treeSitter {
		if err := parseDeclarations(ctx, p.grammar(), content, p.typescript, x); err == nil {
			return x
		}
	}
	regexDeclarations(text, p.typescript, x)
	return x
}
