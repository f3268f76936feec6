// Package yamldoc reads YAML (and JSON, which yaml.v3 accepts) into flat,
// line-annotated key/value entries and document summaries.
package yamldoc

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one leaf value addressed by its dotted key.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Line  int    `json:"line"`
}

type Metadata struct {
	LineCount    int  `json:"lineCount"`
	KeyCount     int  `json:"keyCount"`
	NestedLevels int  `json:"nestedLevels"`
	HasComments  bool `json:"hasComments"`
}

// Document is the generic decode of one YAML text.
type Document struct {
	Data     any      `json:"data"`
	Errors   []string `json:"errors"`
	Metadata Metadata `json:"metadata"`
}

// Parse decodes content. Decode failures land in Errors; metadata that does
// not need a valid tree (line count) is still filled in.
func Parse(content string) Document {
	doc := Document{Errors: []string{}}
	doc.Metadata.LineCount = countLines(content)

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		doc.Errors = append(doc.Errors, err.Error())
		return doc
	}
	if len(root.Content) > 0 {
		if err := root.Decode(&doc.Data); err != nil {
			doc.Errors = append(doc.Errors, err.Error())
		}
	}
	st := &nodeStats{}
	st.walk(&root, 0)
	doc.Metadata.KeyCount = st.keys
	doc.Metadata.NestedLevels = st.depth
	doc.Metadata.HasComments = st.comments
	return doc
}

type nodeStats struct {
	keys     int
	depth    int
	comments bool
}

func (s *nodeStats) walk(n *yaml.Node, depth int) {
	if n == nil {
		return
	}
	if n.HeadComment != "" || n.LineComment != "" || n.FootComment != "" {
		s.comments = true
	}
	switch n.Kind {
	case yaml.MappingNode:
		s.depth = max(s.depth, depth+1)
		s.keys += len(n.Content) / 2
		for _, c := range n.Content {
			s.walk(c, depth+1)
		}
	case yaml.SequenceNode:
		s.depth = max(s.depth, depth+1)
		for _, c := range n.Content {
			s.walk(c, depth+1)
		}
	case yaml.DocumentNode:
		for _, c := range n.Content {
			s.walk(c, depth)
		}
	}
}

// Entries flattens content into dotted keys. Sequence items become key[i];
// null becomes the empty string.
func Entries(content string) ([]Entry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, err
	}
	out := []Entry{}
	if len(root.Content) == 0 {
		return out, nil
	}
	flattenNode(root.Content[0], "", &out)
	return out, nil
}

func flattenNode(n *yaml.Node, prefix string, out *[]Entry) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias != nil {
			flattenNode(n.Alias, prefix, out)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Value == "<<" {
				flattenNode(v, prefix, out)
				continue
			}
			flattenNode(v, join(prefix, k.Value), out)
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			flattenNode(c, fmt.Sprintf("%s[%d]", prefix, i), out)
		}
	case yaml.ScalarNode:
		val := n.Value
		if n.Tag == "!!null" {
			val = ""
		}
		*out = append(*out, Entry{Key: prefix, Value: val, Line: n.Line})
	}
}

// Flatten turns a decoded value into dotted keys.
func Flatten(v any) map[string]string {
	out := map[string]string{}
	flattenValue(v, "", out)
	return out
}

func flattenValue(v any, prefix string, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, c := range t {
			flattenValue(c, join(prefix, k), out)
		}
	case map[any]any:
		for k, c := range t {
			flattenValue(c, join(prefix, fmt.Sprint(k)), out)
		}
	case []any:
		for i, c := range t {
			flattenValue(c, fmt.Sprintf("%s[%d]", prefix, i), out)
		}
	case nil:
		out[prefix] = ""
	case string:
		out[prefix] = t
	case float64:
		out[prefix] = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

var lineEntryRe = regexp.MustCompile(`^(\s*)([^:#\s][^:#]*?)\s*:\s*(.*)$`)

// LineEntries is the line-oriented fallback for text yaml.v3 rejects. Nesting
// is inferred from indentation.
func LineEntries(content string) []Entry {
	type level struct {
		indent int
		key    string
	}
	var stack []level
	out := []Entry{}

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		raw := sc.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "- ") {
			continue
		}
		m := lineEntryRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		indent := len(strings.ReplaceAll(m[1], "\t", "  "))
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		key := unquote(strings.TrimSpace(m[2]))
		prefix := ""
		for _, l := range stack {
			prefix = join(prefix, l.key)
		}
		value := stripComment(strings.TrimSpace(m[3]))
		if value == "" {
			stack = append(stack, level{indent: indent, key: key})
			continue
		}
		out = append(out, Entry{Key: join(prefix, key), Value: unquote(value), Line: n})
	}
	return out
}

func stripComment(v string) string {
	if strings.HasPrefix(v, `"`) || strings.HasPrefix(v, "'") {
		return v
	}
	if i := strings.Index(v, " #"); i >= 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// Keys returns the sorted top-level keys of a decoded mapping.
func Keys(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
