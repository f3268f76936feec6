package schema

import (
	"fmt"
	"slices"
	"strings"
)

// BuiltinScalars are accepted as field types without a definition.
var BuiltinScalars = []string{"String", "Int", "Float", "Boolean", "ID", "Date", "DateTime"}

// Validate cross-checks the aggregated result. Each issue is advisory.
func Validate(res *Result) []string {
	issues := []string{}
	known := map[string]bool{}
	for _, s := range BuiltinScalars {
		known[s] = true
	}
	for _, t := range res.Types {
		known[t.Name] = true
	}

	for _, t := range res.Types {
		for _, f := range t.Fields {
			if name := baseType(f.Type); !known[name] {
				issues = append(issues, fmt.Sprintf("Undefined type '%s' in %s.%s", name, t.Name, f.Name))
			}
		}
		if t.Kind == KindUnion {
			for _, member := range t.PossibleTypes {
				if !known[member] {
					issues = append(issues, fmt.Sprintf("Union %s references undefined type '%s'", t.Name, member))
				}
			}
		}
	}

	for _, op := range res.Operations {
		if op.Kind != OpQuery || op.Source != FromSchema {
			continue
		}
		if !hasResolver(res.Resolvers, op.Name) {
			issues = append(issues, "Missing resolver for query: "+op.Name)
		}
	}
	return issues
}

// hasResolver accepts a resolver whose name mentions Query or the query
// itself, or a resolver map whose Query root declares it.
func hasResolver(resolvers []Resolver, query string) bool {
	for _, r := range resolvers {
		if strings.Contains(r.Name, "Query") || strings.Contains(r.Name, query) {
			return true
		}
		if slices.Contains(r.Fields["Query"], query) {
			return true
		}
	}
	return false
}

func baseType(t string) string {
	return strings.Trim(t, "[]!")
}
