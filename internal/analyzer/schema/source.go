package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"structscope/internal/analyzer"
)

var (
	serverRe    = regexp.MustCompile(`\bnew\s+(ApolloServer|GraphQLServer|YogaServer)\s*\(`)
	gqlTagRe    = regexp.MustCompile("\\b(?:gql|graphql)\\s*`([^`]*)`")
	mapDeclRe   = regexp.MustCompile(`\b(?:const|let|var)\s+([\w$]+)\s*(?::\s*[\w$.<>\[\]]+\s*)?=\s*\{`)
	rootKeyRe   = regexp.MustCompile(`\b(Query|Mutation|Subscription)\s*:\s*\{`)
	rootFieldRe = regexp.MustCompile(`(?m)^\s*(?:async\s+)?([\w$]+)\s*(?::|\()`)
	hookRe      = regexp.MustCompile(`\buse(Query|LazyQuery|SuspenseQuery|Mutation|Subscription)\s*(?:<[^>]*>)?\s*\(\s*([^,)\s]+)`)
	docOpRe     = regexp.MustCompile(`\b(query|mutation|subscription)\b\s*(\w+)?`)

	embeddedSDLRe = regexp.MustCompile(`(?m)^\s*(?:extend\s+)?(?:type|interface|union|enum|input|scalar|schema)\b`)
)

// ScanSource finds server construction, embedded documents, resolver maps
// and client hooks in comment-free source text.
func ScanSource(file, content string) fileSchema {
	var fs fileSchema
	for _, m := range analyzer.FindMatches(content, serverRe, true) {
		fs.schemas = append(fs.schemas, Server{
			ID:   fmt.Sprintf("%s-%s-%d", file, strings.ToLower(m.Groups[0]), m.Index),
			Name: m.Groups[0],
			File: file,
			Line: analyzer.LineNumber(content, m.Index),
		})
	}

	for _, m := range analyzer.FindMatches(content, gqlTagRe, true) {
		base := analyzer.LineNumber(content, m.Index)
		if !embeddedSDLRe.MatchString(m.Groups[0]) {
			fs.operations = append(fs.operations, documentOperations(file, m.Groups[0], base)...)
			continue
		}
		sdl := ParseSDL(file, m.Groups[0])
		for i := range sdl.types {
			sdl.types[i].Line += base - 1
		}
		for i := range sdl.operations {
			sdl.operations[i].Line += base - 1
		}
		fs.types = append(fs.types, sdl.types...)
		fs.operations = append(fs.operations, sdl.operations...)
		fs.warnings = append(fs.warnings, sdl.warnings...)
	}

	for _, loc := range mapDeclRe.FindAllStringSubmatchIndex(content, -1) {
		open := loc[1] - 1
		end := analyzer.MatchingClose(content, open)
		if end < 0 {
			continue
		}
		body := content[open+1 : end]
		fields := rootFields(body)
		if len(fields) == 0 {
			continue
		}
		name := content[loc[2]:loc[3]]
		fs.resolvers = append(fs.resolvers, Resolver{
			ID:     fmt.Sprintf("%s-resolver-%s", file, name),
			Name:   name,
			Fields: fields,
			File:   file,
			Line:   analyzer.LineNumber(content, loc[0]),
		})
	}

	for _, m := range analyzer.FindMatches(content, hookRe, true) {
		kind := OpQuery
		switch m.Groups[0] {
		case "Mutation":
			kind = OpMutation
		case "Subscription":
			kind = OpSubscription
		}
		fs.operations = append(fs.operations, Operation{
			Name:   m.Groups[1],
			Kind:   kind,
			Source: FromHook,
			File:   file,
			Line:   analyzer.LineNumber(content, m.Index),
		})
	}
	return fs
}

// rootFields returns the fields declared under Query, Mutation and
// Subscription keys of a resolver map body.
func rootFields(body string) map[string][]string {
	out := map[string][]string{}
	for _, loc := range rootKeyRe.FindAllStringSubmatchIndex(body, -1) {
		root := body[loc[2]:loc[3]]
		open := loc[1] - 1
		end := analyzer.MatchingClose(body, open)
		if end < 0 {
			continue
		}
		names := []string{}
		inner := body[open+1 : end]
		depth := 0
		for _, lineText := range strings.Split(inner, "\n") {
			if depth == 0 {
				if m := rootFieldRe.FindStringSubmatch(lineText); m != nil {
					names = append(names, m[1])
				}
			}
			depth += strings.Count(lineText, "{") - strings.Count(lineText, "}")
		}
		out[root] = append(out[root], names...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// documentOperations parses an embedded GraphQL document. Line numbers are
// relative to the file holding it.
func documentOperations(file, doc string, baseLine int) []Operation {
	q, err := parser.ParseQuery(&ast.Source{Name: file, Input: doc})
	if err != nil {
		var out []Operation
		for _, m := range analyzer.FindMatches(doc, docOpRe, true) {
			name := m.Groups[1]
			if name == "" {
				name = "anonymous"
			}
			out = append(out, Operation{
				Name:   name,
				Kind:   m.Groups[0],
				Source: FromDocument,
				File:   file,
				Line:   baseLine + analyzer.LineNumber(doc, m.Index) - 1,
			})
		}
		return out
	}

	out := make([]Operation, 0, len(q.Operations))
	for _, op := range q.Operations {
		name := op.Name
		if name == "" {
			name = "anonymous"
		}
		out = append(out, Operation{
			Name:   name,
			Kind:   string(op.Operation),
			Source: FromDocument,
			File:   file,
			Line:   baseLine + line(op.Position) - 1,
		})
	}
	return out
}
