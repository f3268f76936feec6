package schema

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"structscope/internal/analyzer"
)

var defaultRoots = map[string]string{"Query": OpQuery, "Mutation": OpMutation, "Subscription": OpSubscription}

var rootKinds = map[ast.Operation]string{
	ast.Query:        OpQuery,
	ast.Mutation:     OpMutation,
	ast.Subscription: OpSubscription,
}

// ParseSDL extracts the types and root operations of a schema document.
// Documents the parser rejects are scanned with patterns instead and a
// warning is recorded.
func ParseSDL(file, content string) fileSchema {
	doc, err := parser.ParseSchema(&ast.Source{Name: file, Input: content})
	if err != nil {
		fs := scanSDL(file, content)
		fs.warnings = append(fs.warnings, fmt.Sprintf("Invalid schema %s (%v); falling back to pattern extraction", file, err))
		return fs
	}

	roots := maps.Clone(defaultRoots)
	for _, list := range []ast.SchemaDefinitionList{doc.Schema, doc.SchemaExtension} {
		for _, sd := range list {
			for _, ot := range sd.OperationTypes {
				roots[ot.Type] = rootKinds[ot.Operation]
			}
		}
	}

	var fs fileSchema
	for _, def := range doc.Definitions {
		fs.types = append(fs.types, definitionType(file, def))
	}
	for _, list := range []ast.DefinitionList{doc.Definitions, doc.Extensions} {
		for _, def := range list {
			kind, ok := roots[def.Name]
			if !ok || def.Kind != ast.Object {
				continue
			}
			for _, f := range def.Fields {
				fs.operations = append(fs.operations, Operation{
					Name:   f.Name,
					Kind:   kind,
					Source: FromSchema,
					File:   file,
					Line:   line(f.Position),
				})
			}
		}
	}
	return fs
}

func definitionType(file string, def *ast.Definition) Type {
	t := Type{
		ID:            fmt.Sprintf("%s-%s-%s", file, strings.ToLower(string(def.Kind)), def.Name),
		Name:          def.Name,
		Kind:          string(def.Kind),
		Interfaces:    def.Interfaces,
		PossibleTypes: def.Types,
		File:          file,
		Line:          line(def.Position),
	}
	for _, f := range def.Fields {
		field := Field{Name: f.Name, Type: f.Type.String()}
		for _, a := range f.Arguments {
			field.Args = append(field.Args, Argument{Name: a.Name, Type: a.Type.String()})
		}
		t.Fields = append(t.Fields, field)
	}
	for _, v := range def.EnumValues {
		t.EnumValues = append(t.EnumValues, v.Name)
	}
	return t
}

func line(p *ast.Position) int {
	if p == nil {
		return 0
	}
	return p.Line
}

var (
	sdlBlockRe  = regexp.MustCompile(`\b(type|interface|input|enum)\s+(\w+)(?:\s+implements\s+([\w\s&,]+?))?\s*(?:@\w+(?:\([^)]*\))?\s*)*\{([^}]*)\}`)
	sdlUnionRe  = regexp.MustCompile(`\bunion\s+(\w+)\s*=\s*([^\n;]+)`)
	sdlScalarRe = regexp.MustCompile(`\bscalar\s+(\w+)`)
	sdlFieldRe  = regexp.MustCompile(`(\w+)(?:\(([^)]*)\))?\s*:\s*([\w!\[\]]+)`)
	sdlArgRe    = regexp.MustCompile(`(\w+)\s*:\s*([\w!\[\]]+)`)
)

var blockKinds = map[string]string{
	"type":      KindObject,
	"interface": KindInterface,
	"input":     KindInputObject,
	"enum":      KindEnum,
}

// scanSDL is the pattern fallback for documents gqlparser cannot read.
func scanSDL(file, content string) fileSchema {
	var fs fileSchema
	for _, m := range analyzer.FindMatches(content, sdlBlockRe, true) {
		kind := blockKinds[m.Groups[0]]
		name, body := m.Groups[1], m.Groups[3]
		t := Type{
			ID:   fmt.Sprintf("%s-%s-%s", file, strings.ToLower(kind), name),
			Name: name,
			Kind: kind,
			File: file,
			Line: analyzer.LineNumber(content, m.Index),
		}
		if m.Groups[2] != "" {
			t.Interfaces = strings.FieldsFunc(m.Groups[2], func(r rune) bool { return r == '&' || r == ',' || r == ' ' || r == '\n' })
		}
		if kind == KindEnum {
			t.EnumValues = strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == '\n' || r == ' ' || r == '\t' })
		} else {
			for _, f := range sdlFieldRe.FindAllStringSubmatch(body, -1) {
				field := Field{Name: f[1], Type: f[3]}
				for _, a := range sdlArgRe.FindAllStringSubmatch(f[2], -1) {
					field.Args = append(field.Args, Argument{Name: a[1], Type: a[2]})
				}
				t.Fields = append(t.Fields, field)
			}
		}
		fs.types = append(fs.types, t)

		if op, ok := defaultRoots[name]; ok && kind == KindObject {
			for _, f := range t.Fields {
				fs.operations = append(fs.operations, Operation{Name: f.Name, Kind: op, Source: FromSchema, File: file, Line: t.Line})
			}
		}
	}
	for _, m := range analyzer.FindMatches(content, sdlUnionRe, true) {
		var members []string
		for _, p := range strings.Split(m.Groups[1], "|") {
			if p = strings.TrimSpace(p); p != "" {
				members = append(members, p)
			}
		}
		fs.types = append(fs.types, Type{
			ID:            fmt.Sprintf("%s-union-%s", file, m.Groups[0]),
			Name:          m.Groups[0],
			Kind:          KindUnion,
			PossibleTypes: members,
			File:          file,
			Line:          analyzer.LineNumber(content, m.Index),
		})
	}
	for _, m := range analyzer.FindMatches(content, sdlScalarRe, true) {
		fs.types = append(fs.types, Type{
			ID:   fmt.Sprintf("%s-scalar-%s", file, m.Groups[0]),
			Name: m.Groups[0],
			Kind: KindScalar,
			File: file,
			Line: analyzer.LineNumber(content, m.Index),
		})
	}
	return fs
}
