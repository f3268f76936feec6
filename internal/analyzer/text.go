package analyzer

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Match is one regular-expression hit in a text.
type Match struct {
	Text   string   `json:"text"`
	Groups []string `json:"groups"`
	Index  int      `json:"index"`
}

// FilterFiles keeps the paths whose extension is in extensions, in order.
func FilterFiles(paths []string, extensions []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if SupportsFile(p, extensions) {
			out = append(out, p)
		}
	}
	return out
}

// SupportsFile reports whether path has one of extensions (case-insensitive,
// leading dot optional).
func SupportsFile(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e == ext {
			return true
		}
	}
	return false
}

// FindMatches returns every non-overlapping match when global is set,
// otherwise at most the first one.
func FindMatches(text string, re *regexp.Regexp, global bool) []Match {
	n := 1
	if global {
		n = -1
	}
	locs := re.FindAllStringSubmatchIndex(text, n)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		m := Match{Text: text[loc[0]:loc[1]], Index: loc[0]}
		for g := 1; g < len(loc)/2; g++ {
			s, e := loc[2*g], loc[2*g+1]
			if s < 0 {
				m.Groups = append(m.Groups, "")
				continue
			}
			m.Groups = append(m.Groups, text[s:e])
		}
		out = append(out, m)
	}
	return out
}

// LineNumber returns the 1-based line holding byte offset index.
func LineNumber(content string, index int) int {
	index = max(0, min(index, len(content)))
	return strings.Count(content[:index], "\n") + 1
}

// ColumnNumber returns the 1-based column of byte offset index.
func ColumnNumber(content string, index int) int {
	index = max(0, min(index, len(content)))
	return index - strings.LastIndexByte(content[:index], '\n')
}

// RemoveComments blanks // and /* */ comments that sit outside string
// literals. Newlines are kept so offsets still map to the same lines.
func RemoveComments(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	var quote byte
	for i := 0; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(content):
				i++
				b.WriteByte(content[i])
			case c == quote:
				quote = 0
			case c == '\n' && quote != '`':
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' {
				i++
			}
			if i < len(content) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			i += 2
			for i < len(content) && !(content[i] == '*' && i+1 < len(content) && content[i+1] == '/') {
				if content[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i++ // lands on the closing '/'
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// MatchingClose returns the index of the bracket closing the one at open,
// or -1. Brackets inside quoted strings are ignored.
func MatchingClose(content string, open int) int {
	if open < 0 || open >= len(content) {
		return -1
	}
	opener := content[open]
	var closer byte
	switch opener {
	case '(':
		closer = ')'
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	default:
		return -1
	}
	depth := 0
	var quote byte
	for i := open; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var stringLiteralRe = regexp.MustCompile(`'((?:\\.|[^'\\\n])*)'|"((?:\\.|[^"\\\n])*)"|` + "`((?:\\\\.|[^`\\\\])*)`")

// ExtractStringLiterals returns the bodies of quoted literals in source order.
func ExtractStringLiterals(content string) []string {
	var out []string
	for _, m := range stringLiteralRe.FindAllStringSubmatch(content, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out = append(out, g)
				break
			}
		}
	}
	return out
}
