package localization

import (
	"regexp"
	"strings"

	"structscope/internal/analyzer"
)

var (
	callKeyRe   = regexp.MustCompile("(?:(?:^|[^\\w$])\\$?t|\\btranslate|\\b__)\\s*\\(\\s*['\"`]([^'\"`]+)['\"`]")
	messageIDRe = regexp.MustCompile("\\bformatMessage\\s*\\(\\s*\\{\\s*id\\s*:\\s*['\"`]([^'\"`]+)['\"`]")
	scriptExtRe = regexp.MustCompile(`\.(?:[cm]?js|jsx|ts|tsx)$`)
)

// UsedKeys lists the distinct translation keys referenced by code. Keys
// built by template interpolation are skipped.
func UsedKeys(path, content string) []string {
	if scriptExtRe.MatchString(path) {
		content = analyzer.RemoveComments(content)
	}
	var out []string
	seen := map[string]bool{}
	for _, re := range []*regexp.Regexp{callKeyRe, messageIDRe} {
		for _, m := range analyzer.FindMatches(content, re, true) {
			k := m.Groups[0]
			if strings.Contains(k, "${") || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
