package source

import (
	"regexp"
	"sort"
	"strings"

	"structscope/internal/analyzer"
)

var importPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{KindImport, regexp.MustCompile(`\bimport\s+(?:(?:\{[^}]*\}|\*\s+as\s+[\w$]+|[\w$]+)(?:\s*,\s*(?:\{[^}]*\}|\*\s+as\s+[\w$]+))?\s+from\s+)?['"]([^'"]+)['"]`)},
	{KindType, regexp.MustCompile(`\bimport\s+type\s+(?:\{[^}]*\}|[\w$]+)\s*from\s*['"]([^'"]+)['"]`)},
	{KindDynamic, regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
	{KindRequire, regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
	{KindReexport, regexp.MustCompile(`\bexport\s+(?:type\s+)?(?:\*(?:\s+as\s+[\w$]+)?|\{[^}]*\})\s*from\s*['"]([^'"]+)['"]`)},
}

var (
	exportDeclRe    = regexp.MustCompile(`\bexport\s+(?:async\s+)?(?:const|let|var|function\*?|class)\s+([\w$]+)`)
	exportTSDeclRe  = regexp.MustCompile(`\bexport\s+(?:declare\s+)?(?:abstract\s+)?(?:type|interface|enum|class)\s+([\w$]+)`)
	exportListRe    = regexp.MustCompile(`\bexport\s*(?:type\s+)?\{([^}]+)\}`)
	exportDefaultRe = regexp.MustCompile(`\bexport\s+default\b`)
	moduleExportsRe = regexp.MustCompile(`\bmodule\.exports\s*=\s*\{([^}]+)\}`)
	exportsPropRe   = regexp.MustCompile(`\b(?:module\.)?exports\.([\w$]+)\s*=`)
	identPrefixRe   = regexp.MustCompile(`^[A-Za-z_$][\w$]*`)
)

// extractImports returns the deduplicated specifiers and every reference in
// source order.
func extractImports(content string) ([]string, []ImportRef) {
	type hit struct {
		ref   ImportRef
		index int
	}
	var hits []hit
	for _, p := range importPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(content, -1) {
			hits = append(hits, hit{
				ref: ImportRef{
					Specifier: content[loc[2]:loc[3]],
					Kind:      p.kind,
					Line:      analyzer.LineNumber(content, loc[0]),
				},
				index: loc[0],
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].index < hits[j].index })

	refs := make([]ImportRef, 0, len(hits))
	specs := make([]string, 0, len(hits))
	for _, h := range hits {
		refs = append(refs, h.ref)
		specs = append(specs, h.ref.Specifier)
	}
	return dedupe(specs), refs
}

func extractExports(content string, typescript bool) []string {
	var names []string
	for _, m := range exportDeclRe.FindAllStringSubmatch(content, -1) {
		names = append(names, m[1])
	}
	if typescript {
		for _, m := range exportTSDeclRe.FindAllStringSubmatch(content, -1) {
			names = append(names, m[1])
		}
	}
	for _, m := range exportListRe.FindAllStringSubmatch(content, -1) {
		for _, part := range strings.Split(m[1], ",") {
			part = strings.TrimSpace(part)
			part = strings.TrimPrefix(part, "type ")
			if i := strings.Index(part, " as "); i >= 0 {
				part = part[:i]
			}
			names = append(names, strings.TrimSpace(part))
		}
	}
	if exportDefaultRe.MatchString(content) {
		names = append(names, "default")
	}
	for _, m := range moduleExportsRe.FindAllStringSubmatch(content, -1) {
		for _, part := range strings.Split(m[1], ",") {
			key := strings.TrimSpace(strings.SplitN(part, ":", 2)[0])
			names = append(names, identPrefixRe.FindString(key))
		}
	}
	for _, m := range exportsPropRe.FindAllStringSubmatch(content, -1) {
		names = append(names, m[1])
	}
	return dedupe(names)
}

// ---- Regex declaration fallback ----

var (
	functionRe      = regexp.MustCompile(`\b(async\s+)?function\s*\*?\s*([\w$]+)\s*\(([^)]*)\)`)
	arrowRe         = regexp.MustCompile(`\b(?:const|let|var)\s+([\w$]+)\s*(?::[^=]+)?=\s*(async\s+)?(?:\(([^)]*)\)|([\w$]+))\s*(?::[^=]+)?=>`)
	classRe         = regexp.MustCompile(`\bclass\s+([\w$]+)(?:<[^>]*>)?(?:\s+extends\s+([\w$.]+))?[^{]*\{`)
	methodRe        = regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|static|readonly|override)\s+)*(async\s+)?\*?([\w$]+)\s*\([^)]*\)\s*(?::\s*[^{]+)?\{`)
	variableRe      = regexp.MustCompile(`\b(const|let|var)\s+([\w$]+)`)
	interfaceRe     = regexp.MustCompile(`\binterface\s+([\w$]+)(?:<[^>]+>)?\s*(?:extends\s+[^{]+)?\{`)
	propertyRe      = regexp.MustCompile(`(?m)^\s*(?:readonly\s+)?([\w$]+)(\?)?\s*:\s*([^;,\n]+)`)
	typeAliasRe     = regexp.MustCompile(`\btype\s+([\w$]+)(?:<[^>]+>)?\s*=\s*([^;]+);`)
	enumRe          = regexp.MustCompile(`\benum\s+([\w$]+)\s*\{([^}]*)\}`)
	enumValueRe     = regexp.MustCompile(`([\w$]+)(?:\s*=\s*[^,]+)?`)
	controlKeywords = map[string]bool{
		"constructor": true, "if": true, "for": true, "while": true, "switch": true,
		"catch": true, "function": true, "return": true, "with": true,
	}
)

func regexDeclarations(content string, typescript bool, x *Extraction) {
	line := func(i int) int { return analyzer.LineNumber(content, i) }

	for _, loc := range functionRe.FindAllStringSubmatchIndex(content, -1) {
		x.Functions = append(x.Functions, Function{
			Name:   content[loc[4]:loc[5]],
			Params: splitParams(content[loc[6]:loc[7]]),
			Async:  loc[2] >= 0,
			Line:   line(loc[0]),
		})
	}
	for _, loc := range arrowRe.FindAllStringSubmatchIndex(content, -1) {
		var params []string
		switch {
		case loc[6] >= 0:
			params = splitParams(content[loc[6]:loc[7]])
		case loc[8] >= 0:
			params = []string{content[loc[8]:loc[9]]}
		}
		x.Functions = append(x.Functions, Function{
			Name:   content[loc[2]:loc[3]],
			Params: params,
			Async:  loc[4] >= 0,
			Line:   line(loc[0]),
		})
	}

	for _, loc := range classRe.FindAllStringSubmatchIndex(content, -1) {
		c := Class{Name: content[loc[2]:loc[3]], Line: line(loc[0]), Methods: []string{}}
		if loc[4] >= 0 {
			c.Extends = content[loc[4]:loc[5]]
		}
		body := braceBody(content, loc[1]-1)
		for _, m := range methodRe.FindAllStringSubmatch(body, -1) {
			if !controlKeywords[m[2]] {
				c.Methods = append(c.Methods, m[2])
			}
		}
		c.Methods = dedupe(c.Methods)
		x.Classes = append(x.Classes, c)
	}

	for _, loc := range variableRe.FindAllStringSubmatchIndex(content, -1) {
		before := content[max(0, loc[0]-20):loc[0]]
		x.Variables = append(x.Variables, Variable{
			Name:     content[loc[4]:loc[5]],
			Kind:     content[loc[2]:loc[3]],
			Exported: strings.Contains(before, "export"),
			Line:     line(loc[0]),
		})
	}

	if !typescript {
		return
	}
	for _, loc := range interfaceRe.FindAllStringSubmatchIndex(content, -1) {
		it := Interface{Name: content[loc[2]:loc[3]], Line: line(loc[0]), Properties: []Property{}}
		body := braceBody(content, loc[1]-1)
		for _, m := range propertyRe.FindAllStringSubmatch(body, -1) {
			it.Properties = append(it.Properties, Property{
				Name:     m[1],
				Optional: m[2] == "?",
				Type:     strings.TrimSpace(m[3]),
			})
		}
		x.Interfaces = append(x.Interfaces, it)
	}
	for _, loc := range typeAliasRe.FindAllStringSubmatchIndex(content, -1) {
		x.Types = append(x.Types, TypeAlias{
			Name:       content[loc[2]:loc[3]],
			Definition: strings.TrimSpace(content[loc[4]:loc[5]]),
			Line:       line(loc[0]),
		})
	}
	for _, loc := range enumRe.FindAllStringSubmatchIndex(content, -1) {
		e := Enum{Name: content[loc[2]:loc[3]], Line: line(loc[0]), Values: []string{}}
		for _, part := range strings.Split(content[loc[4]:loc[5]], ",") {
			if m := enumValueRe.FindStringSubmatch(strings.TrimSpace(part)); m != nil {
				e.Values = append(e.Values, m[1])
			}
		}
		x.Enums = append(x.Enums, e)
	}
}

// braceBody returns the text between the '{' at open and its matching '}'.
// An unbalanced body runs to the end of content.
func braceBody(content string, open int) string {
	if open < 0 || open >= len(content) || content[open] != '{' {
		return ""
	}
	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i]
			}
		}
	}
	return content[open+1:]
}

// splitParams reduces a parameter list to bare names.
func splitParams(list string) []string {
	out := []string{}
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if i := strings.IndexAny(p, ":="); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		p = strings.TrimSuffix(p, "?")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
