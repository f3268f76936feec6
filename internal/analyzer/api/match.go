package api

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// MatchAPIs pairs every endpoint with the calls it serves.
func MatchAPIs(endpoints []Endpoint, calls []Call) []Match {
	patterns := map[string]*regexp.Regexp{}
	out := make([]Match, 0, len(endpoints))
	for _, ep := range endpoints {
		re, ok := patterns[ep.Path]
		if !ok {
			re = RoutePattern(ep.Path)
			patterns[ep.Path] = re
		}
		m := Match{Endpoint: ep, Calls: []Call{}}
		for _, c := range calls {
			if c.Method == ep.Method && re.MatchString(CallPath(c.URL)) {
				m.Calls = append(m.Calls, c)
			}
		}
		m.Matched = len(m.Calls) > 0
		out = append(out, m)
	}
	return out
}

// IsMatch reports whether call hits endpoint.
func IsMatch(ep Endpoint, c Call) bool {
	return ep.Method == c.Method && RoutePattern(ep.Path).MatchString(CallPath(c.URL))
}

// RoutePattern compiles a route path to an anchored expression. A ":name"
// segment matches exactly one segment and "*" matches any remainder.
func RoutePattern(route string) *regexp.Regexp {
	segs := strings.Split(route, "/")
	for i, seg := range segs {
		switch {
		case strings.HasPrefix(seg, ":"):
			segs[i] = `[^/]+`
		default:
			parts := strings.Split(seg, "*")
			for j := range parts {
				parts[j] = regexp.QuoteMeta(parts[j])
			}
			segs[i] = strings.Join(parts, ".*")
		}
	}
	return regexp.MustCompile("^" + strings.Join(segs, "/") + "$")
}

// CallPath reduces a request URL to its pathname: query and fragment are
// dropped, absolute URLs lose scheme and host.
func CallPath(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		p = raw[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// FindMismatches reports calls that resemble an endpoint without matching
// it. Similarity must fall strictly between 0.5 and 1.
func FindMismatches(calls []Call, endpoints []Endpoint) []Mismatch {
	out := []Mismatch{}
	for _, c := range calls {
		cp := CallPath(c.URL)
		var issues []string
		for _, ep := range endpoints {
			sim := PathSimilarity(cp, ep.Path)
			if sim <= 0.5 || sim >= 1.0 || IsMatch(ep, c) {
				continue
			}
			if ep.Method != c.Method {
				issues = append(issues, fmt.Sprintf("Method mismatch: %s vs %s", c.Method, ep.Method))
			}
			if diff := pathDifference(cp, ep.Path); diff != "" {
				issues = append(issues, "Path difference: "+diff)
			}
		}
		if len(issues) > 0 {
			out = append(out, Mismatch{Call: c, Issues: issues})
		}
	}
	return out
}

// PathSimilarity is the share of aligned segments over the longer path.
// A ":param" segment of route always aligns.
func PathSimilarity(callPath, route string) float64 {
	a, b := segments(callPath), segments(route)
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	aligned := 0
	for i := range min(len(a), len(b)) {
		if a[i] == b[i] || strings.HasPrefix(b[i], ":") {
			aligned++
		}
	}
	return float64(aligned) / float64(longest)
}

func pathDifference(callPath, route string) string {
	a, b := segments(callPath), segments(route)
	if len(a) != len(b) {
		return fmt.Sprintf("segment count %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] && !strings.HasPrefix(b[i], ":") {
			return fmt.Sprintf("segment '%s' vs '%s'", a[i], b[i])
		}
	}
	return ""
}

func segments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
