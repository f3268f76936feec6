package localization

import (
	"bufio"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/magiconair/properties"

	"structscope/internal/extract/yamldoc"
)

// Entry is one translated message.
type Entry = yamldoc.Entry

var languagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/locales?/([a-z]{2}(?:[-_][A-Z]{2})?)/`),
	regexp.MustCompile(`/([a-z]{2}(?:-[A-Z]{2})?)\.(?:json|ya?ml|po|properties)$`),
	regexp.MustCompile(`/messages[._]([a-z]{2}(?:[-_][A-Z]{2})?)\.`),
	regexp.MustCompile(`/i18n/([a-z]{2}(?:-[A-Z]{2})?)/`),
}

// Language derives the language tag from a translation file path.
func Language(path string) (string, bool) {
	p := filepath.ToSlash(path)
	for _, re := range languagePatterns {
		if m := re.FindStringSubmatch(p); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// parsed is the outcome of reading one translation file. A non-empty
// warning means a fallback parser produced the entries.
type parsed struct {
	entries []Entry
	warning string
}

// ParseFile reads the messages of a translation file according to its
// extension.
func ParseFile(path, content string) (parsed, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		entries, err := parseJSON(content)
		return parsed{entries: entries}, err
	case ".yaml", ".yml":
		entries, err := yamldoc.Entries(content)
		if err != nil {
			return parsed{
				entries: yamldoc.LineEntries(content),
				warning: fmt.Sprintf("YAML parse failed for %s (%v); using line-based entries", path, err),
			}, nil
		}
		return parsed{entries: entries}, nil
	case ".po":
		return parsed{entries: ParsePO(content)}, nil
	case ".properties":
		entries, err := parseProperties(content)
		return parsed{entries: entries}, err
	}
	return parsed{}, fmt.Errorf("localization: unsupported translation file %s", path)
}

// parseJSON goes through yaml.v3 for line numbers and retries with
// encoding/json for documents only JSON accepts.
func parseJSON(content string) ([]Entry, error) {
	if entries, err := yamldoc.Entries(content); err == nil {
		return entries, nil
	}
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("localization: parse json: %w", err)
	}
	flat := yamldoc.Flatten(v)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: flat[k], Line: 1})
	}
	return out, nil
}

func parseProperties(content string) ([]Entry, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("localization: parse properties: %w", err)
	}
	lines := strings.Split(content, "\n")
	out := make([]Entry, 0, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		out = append(out, Entry{Key: k, Value: v, Line: keyLine(lines, k)})
	}
	return out, nil
}

func keyLine(lines []string, key string) int {
	for i, l := range lines {
		t := strings.TrimLeft(l, " \t")
		if rest, ok := strings.CutPrefix(t, key); ok && (rest == "" || strings.ContainsAny(rest[:1], "=: \t\r")) {
			return i + 1
		}
	}
	return 0
}

// ParsePO reads gettext catalog entries. The header entry (empty msgid)
// and obsolete entries are skipped; plural forms keep msgstr[0].
func ParsePO(content string) []Entry {
	var (
		out     []Entry
		id, str strings.Builder
		idLine  int
		field   *strings.Builder
	)
	flush := func() {
		if idLine > 0 && id.Len() > 0 {
			out = append(out, Entry{Key: id.String(), Value: str.String(), Line: idLine})
		}
		id.Reset()
		str.Reset()
		idLine = 0
		field = nil
	}

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
			// comments, flags and obsolete entries
		case strings.HasPrefix(line, "msgid_plural"):
			field = nil
		case strings.HasPrefix(line, "msgid "):
			flush()
			idLine = n
			field = &id
			field.WriteString(poString(line[len("msgid "):]))
		case strings.HasPrefix(line, "msgstr[0]"):
			field = &str
			field.WriteString(poString(strings.TrimSpace(line[len("msgstr[0]"):])))
		case strings.HasPrefix(line, "msgstr["):
			field = nil
		case strings.HasPrefix(line, "msgstr "):
			field = &str
			field.WriteString(poString(line[len("msgstr "):]))
		case strings.HasPrefix(line, `"`):
			if field != nil {
				field.WriteString(poString(line))
			}
		default:
			field = nil
		}
	}
	flush()
	return out
}

func poString(s string) string {
	s = strings.TrimSpace(s)
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}
