package api

import (
	"fmt"
	"strings"
)

// Documentation renders a markdown report of an analysis.
func Documentation(res *Result) string {
	var b strings.Builder
	matched := 0
	for _, m := range res.Matches {
		if m.Matched {
			matched++
		}
	}
	b.WriteString("# API Analysis\n\n## Summary\n")
	fmt.Fprintf(&b, "- Endpoints: %d\n", len(res.Endpoints))
	fmt.Fprintf(&b, "- Calls: %d\n", len(res.Calls))
	fmt.Fprintf(&b, "- Matched endpoints: %d\n", matched)
	fmt.Fprintf(&b, "- Orphaned endpoints: %d\n", len(res.OrphanedEndpoints))
	fmt.Fprintf(&b, "- Orphaned calls: %d\n\n", len(res.OrphanedCalls))

	if len(res.Endpoints) > 0 {
		b.WriteString("## Endpoints\n\n| Method | Path | Responses | Location |\n|---|---|---|---|\n")
		for _, ep := range res.Endpoints {
			codes := make([]string, 0, len(ep.Responses))
			for _, r := range ep.Responses {
				codes = append(codes, fmt.Sprint(r.Status))
			}
			fmt.Fprintf(&b, "| %s | `%s` | %s | %s:%d |\n", ep.Method, ep.Path, strings.Join(codes, ", "), ep.File, ep.Line)
		}
		b.WriteString("\n")
	}
	if len(res.OrphanedEndpoints) > 0 {
		b.WriteString("## Unused endpoints\n")
		for _, ep := range res.OrphanedEndpoints {
			fmt.Fprintf(&b, "- `%s %s` (%s:%d)\n", ep.Method, ep.Path, ep.File, ep.Line)
		}
		b.WriteString("\n")
	}
	if len(res.OrphanedCalls) > 0 {
		b.WriteString("## Unmatched calls\n")
		for _, c := range res.OrphanedCalls {
			fmt.Fprintf(&b, "- `%s %s` (%s:%d)\n", c.Method, c.URL, c.File, c.Line)
		}
		b.WriteString("\n")
	}
	if len(res.Mismatches) > 0 {
		b.WriteString("## Possible mismatches\n")
		for _, m := range res.Mismatches {
			fmt.Fprintf(&b, "- `%s %s`: %s\n", m.Call.Method, m.Call.URL, strings.Join(m.Issues, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
