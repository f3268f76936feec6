package api

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"structscope/internal/analyzer"
)

const (
	StyleChained   = "chained"
	StyleFluent    = "fluent"
	StyleDecorator = "decorator"
	StyleOpenAPI   = "openapi"

	responseWindow = 500
)

const quoted = "['\"`]([^'\"`]+)['\"`]"

var (
	chainedRouteRe = regexp.MustCompile(`\b(router|app|server|fastify|[\w$]+Router)\.(get|post|put|delete|patch)\s*\(\s*` + quoted + `\s*(?:,\s*([\w$.]+))?`)
	fluentRouteRe  = regexp.MustCompile(`\b(?:router|app|[\w$]+Router)\.route\s*\(\s*` + quoted + `\s*\)`)
	chainLinkRe    = regexp.MustCompile(`^\s*\.\s*(get|post|put|delete|patch)\s*\(`)
	decoratorRe    = regexp.MustCompile("@(Get|Post|Put|Delete|Patch)\\s*\\(\\s*(?:['\"`]([^'\"`]*)['\"`])?\\s*\\)")
	controllerRe   = regexp.MustCompile("@Controller\\s*\\(\\s*(?:['\"`]([^'\"`]*)['\"`])?\\s*\\)")
	responseRe     = regexp.MustCompile(`\b(?:res|reply)\.(?:(?:status|sendStatus|code)\s*\(\s*(\d{3})\s*\)|(?:json|send)\s*\()`)

	fetchRe        = regexp.MustCompile(`\bfetch\s*\(\s*` + quoted + `\s*(?:,\s*(\{))?`)
	axiosShortRe   = regexp.MustCompile(`\baxios\.(get|post|put|delete|patch|head|options)\s*\(\s*` + quoted)
	axiosConfigRe  = regexp.MustCompile(`\baxios(?:\.request)?\s*\(\s*\{`)
	ajaxRe         = regexp.MustCompile(`\$\.ajax\s*\(\s*\{`)
	jqueryShortRe  = regexp.MustCompile(`\$\.(get|post|getJSON)\s*\(\s*` + quoted)
	urlFieldRe     = regexp.MustCompile(`\burl\s*:\s*` + quoted)
	methodFieldRe  = regexp.MustCompile("\\b(?:method|type)\\s*:\\s*['\"`](\\w+)['\"`]")
)

// ExtractEndpoints finds route declarations in comment-free source text.
func ExtractEndpoints(content, file string) []Endpoint {
	var out []Endpoint
	add := func(method, p, handler, style string, index int) {
		out = append(out, Endpoint{
			ID:         fmt.Sprintf("%s:%s:%s:%d", file, method, p, index),
			Method:     method,
			Path:       p,
			Handler:    handler,
			File:       file,
			Line:       analyzer.LineNumber(content, index),
			Style:      style,
			Parameters: pathParameters(p),
			Responses:  extractResponses(content, index),
		})
	}

	for _, m := range analyzer.FindMatches(content, chainedRouteRe, true) {
		add(strings.ToUpper(m.Groups[1]), m.Groups[2], m.Groups[3], StyleChained, m.Index)
	}

	for _, loc := range fluentRouteRe.FindAllStringSubmatchIndex(content, -1) {
		p := content[loc[2]:loc[3]]
		pos := loc[1]
		for {
			link := chainLinkRe.FindStringSubmatchIndex(content[pos:])
			if link == nil {
				break
			}
			method := strings.ToUpper(content[pos+link[2] : pos+link[3]])
			add(method, p, "", StyleFluent, loc[0])
			end := analyzer.MatchingClose(content, pos+link[1]-1)
			if end < 0 {
				break
			}
			pos = end + 1
		}
	}

	controllers := analyzer.FindMatches(content, controllerRe, true)
	for _, m := range analyzer.FindMatches(content, decoratorRe, true) {
		prefix := ""
		for _, c := range controllers {
			if c.Index > m.Index {
				break
			}
			prefix = c.Groups[0]
		}
		add(strings.ToUpper(m.Groups[0]), joinRoute(prefix, m.Groups[1]), "", StyleDecorator, m.Index)
	}
	return out
}

// ExtractCalls finds client HTTP requests in comment-free source text.
func ExtractCalls(content, file string) []Call {
	var out []Call
	add := func(client, method, url string, index int) {
		if method == "" {
			method = "GET"
		}
		out = append(out, Call{
			ID:     fmt.Sprintf("%s:%s:%s:%d", file, client, url, index),
			Method: strings.ToUpper(method),
			URL:    url,
			File:   file,
			Line:   analyzer.LineNumber(content, index),
			Client: client,
		})
	}

	for _, m := range analyzer.FindMatches(content, fetchRe, true) {
		var opts string
		if m.Groups[1] != "" {
			opts = objectBody(content, m)
		}
		add("fetch", field(methodFieldRe, opts), m.Groups[0], m.Index)
	}
	for _, m := range analyzer.FindMatches(content, axiosShortRe, true) {
		add("axios", m.Groups[0], m.Groups[1], m.Index)
	}
	for _, m := range analyzer.FindMatches(content, axiosConfigRe, true) {
		body := objectBody(content, m)
		if u := field(urlFieldRe, body); u != "" {
			add("axios", field(methodFieldRe, body), u, m.Index)
		}
	}
	for _, m := range analyzer.FindMatches(content, ajaxRe, true) {
		body := objectBody(content, m)
		if u := field(urlFieldRe, body); u != "" {
			add("jquery", field(methodFieldRe, body), u, m.Index)
		}
	}
	for _, m := range analyzer.FindMatches(content, jqueryShortRe, true) {
		method := m.Groups[0]
		if method == "getJSON" {
			method = "GET"
		}
		add("jquery", method, m.Groups[1], m.Index)
	}
	return out
}

// objectBody returns the text inside the object literal whose opening brace
// ends m, nested objects included. An unclosed literal yields "".
func objectBody(content string, m analyzer.Match) string {
	open := m.Index + len(m.Text) - 1
	end := analyzer.MatchingClose(content, open)
	if end < 0 {
		return ""
	}
	return content[open+1 : end]
}

func field(re *regexp.Regexp, body string) string {
	if m := re.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// extractResponses scans the text following a route for status-producing
// calls. Statuses are reported once each, in order of appearance.
func extractResponses(content string, start int) []Response {
	end := min(len(content), start+responseWindow)
	var out []Response
	seen := map[int]bool{}
	for _, m := range analyzer.FindMatches(content[start:end], responseRe, true) {
		status := 200
		if m.Groups[0] != "" {
			status, _ = strconv.Atoi(m.Groups[0])
		}
		if seen[status] {
			continue
		}
		seen[status] = true
		out = append(out, Response{Status: status, Description: fmt.Sprintf("HTTP %d response", status)})
	}
	if len(out) == 0 {
		return []Response{{Status: 200, Description: "Default response"}}
	}
	return out
}

func joinRoute(prefix, p string) string {
	return path.Join("/", strings.Trim(prefix, "/"), strings.Trim(p, "/"))
}
