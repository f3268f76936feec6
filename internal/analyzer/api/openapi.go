package api

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"structscope/internal/analyzer"
)

var (
	openAPIKeyRe  = regexp.MustCompile(`(?m)^[\s{]*["']?openapi["']?\s*:`)
	templateVarRe  = regexp.MustCompile(`\{([^}/]+)\}`)
)

func looksLikeOpenAPI(content string) bool {
	return openAPIKeyRe.MatchString(content)
}

// OpenAPIEndpoints lists the operations of an OpenAPI 3 document. Path
// templates are rewritten to route syntax, so /users/{id} becomes /users/:id.
func OpenAPIEndpoints(file, content string) ([]Endpoint, error) {
	doc, err := openapi3.NewLoader().LoadFromData([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("api: load openapi document: %w", err)
	}
	if doc.Paths == nil {
		return nil, nil
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Endpoint
	for _, raw := range keys {
		item := paths[raw]
		route := templateVarRe.ReplaceAllString(raw, ":$1")
		index := max(0, strings.Index(content, raw))
		ops := item.Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, method := range methods {
			op := ops[method]
			method = strings.ToUpper(method)
			out = append(out, Endpoint{
				ID:         fmt.Sprintf("%s:%s:%s:%d", file, method, route, index),
				Method:     method,
				Path:       route,
				Handler:    op.OperationID,
				File:       file,
				Line:       analyzer.LineNumber(content, index),
				Style:      StyleOpenAPI,
				Parameters: openAPIParameters(route, item.Parameters, op.Parameters),
				Responses:  openAPIResponses(op.Responses),
			})
		}
	}
	return out, nil
}

func openAPIParameters(route string, sets ...openapi3.Parameters) []Parameter {
	params := []Parameter{}
	seen := map[string]bool{}
	for _, set := range sets {
		for _, ref := range set {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			key := p.In + ":" + p.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			typ := "string"
			if s := p.Schema; s != nil && s.Value != nil && s.Value.Type != nil {
				if ts := s.Value.Type.Slice(); len(ts) > 0 {
					typ = ts[0]
				}
			}
			params = append(params, Parameter{Name: p.Name, Type: typ, Required: p.Required, Location: p.In})
		}
	}
	for _, p := range pathParameters(route) {
		if !seen["path:"+p.Name] {
			params = append(params, p)
		}
	}
	return params
}

func openAPIResponses(rs *openapi3.Responses) []Response {
	if rs == nil || rs.Len() == 0 {
		return []Response{{Status: 200, Description: "Default response"}}
	}
	m := rs.Map()
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var out []Response
	for _, code := range codes {
		status, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		r := Response{Status: status, Description: fmt.Sprintf("HTTP %d response", status)}
		if ref := m[code]; ref != nil && ref.Value != nil && ref.Value.Description != nil {
			r.Description = *ref.Value.Description
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return []Response{{Status: 200, Description: "Default response"}}
	}
	return out
}
