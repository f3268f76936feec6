package localization

import (
	"fmt"
	"strings"
)

const reportLimit = 10

// Report renders a markdown summary of an analysis.
func Report(res *Result) string {
	var b strings.Builder
	b.WriteString("# Translation Report\n\n## Overview\n")
	fmt.Fprintf(&b, "- Keys: %d\n", res.TotalKeys)
	fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(res.Languages, ", "))
	fmt.Fprintf(&b, "- Completion: %d%%\n\n", res.CompletionPercentage)

	b.WriteString("## Coverage by language\n")
	for _, lang := range res.Languages {
		fmt.Fprintf(&b, "- %s: %d%%\n", lang, res.Coverage[lang])
	}
	b.WriteString("\n")

	if n := len(res.MissingKeys); n > 0 {
		fmt.Fprintf(&b, "## Missing translations (%d)\n", n)
		for _, m := range res.MissingKeys[:min(n, reportLimit)] {
			fmt.Fprintf(&b, "- `%s`: missing in %s\n", m.Key, strings.Join(m.MissingLanguages, ", "))
		}
		if n > reportLimit {
			fmt.Fprintf(&b, "... and %d more\n", n-reportLimit)
		}
		b.WriteString("\n")
	}
	if n := len(res.UnusedKeys); n > 0 {
		fmt.Fprintf(&b, "## Unused keys (%d)\n", n)
		for _, k := range res.UnusedKeys[:min(n, reportLimit)] {
			fmt.Fprintf(&b, "- `%s`\n", k.Key)
		}
		if n > reportLimit {
			fmt.Fprintf(&b, "... and %d more\n", n-reportLimit)
		}
		b.WriteString("\n")
	}
	if n := len(res.DuplicateKeys); n > 0 {
		fmt.Fprintf(&b, "## Duplicate keys (%d)\n", n)
		for _, d := range res.DuplicateKeys {
			locs := make([]string, 0, len(d.Locations))
			for _, l := range d.Locations {
				locs = append(locs, fmt.Sprintf("%s:%d", l.File, l.Line))
			}
			fmt.Fprintf(&b, "- `%s` (%s): %s\n", d.Key, d.Language, strings.Join(locs, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
