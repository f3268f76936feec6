package messaging

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"structscope/internal/analyzer"
)

const (
	receiver        = `(io|socket|wss?|nsp|[\w$]+(?:Socket|Namespace))`
	lit             = "['\"`]([^'\"`]+)['\"`]"
	validationReach = 300
)

var (
	serverRequireRe = regexp.MustCompile(`\b(?:(?:const|let|var)\s+([\w$]+)\s*=\s*|io\s*=\s*)require\s*\(\s*['"]socket\.io['"]\s*\)`)
	serverImportRe  = regexp.MustCompile(`\bimport\s+(?:\*\s+as\s+)?([\w$]+|\{[^}]*\})\s+from\s+['"]socket\.io['"]`)
	wsServerRe      = regexp.MustCompile(`\b(?:(?:const|let|var)\s+([\w$]+)\s*=\s*)?new\s+(?:WebSocket\.Server|WebSocketServer)\s*\(`)
	clientCallRe    = regexp.MustCompile("\\b(?:(?:const|let|var)\\s+([\\w$]+)\\s*=\\s*|socket\\s*=\\s*)io\\s*\\(\\s*(?:['\"`]([^'\"`]*)['\"`])?")
	clientImportRe  = regexp.MustCompile(`\bimport\s+(?:\*\s+as\s+)?([\w$]+|\{[^}]*\})\s+from\s+['"]socket\.io-client['"]`)
	nativeRe        = regexp.MustCompile(`\b(?:(?:const|let|var)\s+([\w$]+)\s*=\s*)?new\s+WebSocket\s*\(\s*` + lit)

	namespaceRe  = regexp.MustCompile(`\b(?:io|socket)\s*\.\s*of\s*\(\s*` + lit + `\s*\)`)
	roomRe       = regexp.MustCompile(`\b(?:io|socket|[\w$]+Socket)\s*\.\s*(?:join|leave|to|in)\s*\(\s*` + lit + `\s*\)`)
	middlewareRe = regexp.MustCompile(`\b(?:io|socket|nsp|[\w$]+Namespace)\s*\.\s*use\s*\(\s*(?:async\s+)?([\w$.]+)?`)
	listenerRe   = regexp.MustCompile(`\b` + receiver + `\s*\.\s*(?:on|once|addEventListener)\s*\(\s*` + lit)
	emitRe       = regexp.MustCompile(`\b` + receiver + `((?:\s*\.\s*(?:to|in|of)\s*\([^)]*\)|\s*\.\s*broadcast)*)\s*\.\s*emit\s*\(\s*` + lit)
	chainRoomRe  = regexp.MustCompile(`\.\s*(?:to|in)\s*\(\s*` + lit)
	validationRe = regexp.MustCompile(`\b(?:validate\w*|\w+Schema\s*\.\s*(?:parse|safeParse|validate)|Joi\s*\.|z\s*\.|typeof\s)`)
)

// Scan extracts connections, rooms, namespaces, middlewares and events from
// comment-free source text.
func Scan(file, content string) fileEvents {
	var fe fileEvents
	var connAt, eventAt []int
	conn := func(typ, name, url string, index int) {
		connAt = append(connAt, index)
		fe.connections = append(fe.connections, Connection{
			ID:   fmt.Sprintf("%s-%s-%d", file, typ, index),
			Type: typ,
			Name: name,
			URL:  url,
			File: file,
			Line: analyzer.LineNumber(content, index),
		})
	}

	for _, m := range analyzer.FindMatches(content, serverRequireRe, true) {
		conn(ConnServer, or(m.Groups[0], "io"), "", m.Index)
	}
	for _, m := range analyzer.FindMatches(content, serverImportRe, true) {
		conn(ConnServer, importName(m.Groups[0], "Server"), "", m.Index)
	}
	for _, m := range analyzer.FindMatches(content, wsServerRe, true) {
		conn(ConnServer, or(m.Groups[0], "WebSocketServer"), "", m.Index)
	}
	for _, m := range analyzer.FindMatches(content, clientCallRe, true) {
		conn(ConnClient, or(m.Groups[0], "socket"), m.Groups[1], m.Index)
	}
	for _, m := range analyzer.FindMatches(content, clientImportRe, true) {
		conn(ConnClient, importName(m.Groups[0], "io"), "", m.Index)
	}
	for _, m := range analyzer.FindMatches(content, nativeRe, true) {
		conn(ConnNative, or(m.Groups[0], "WebSocket"), m.Groups[1], m.Index)
	}
	byOffset(fe.connections, connAt)

	for _, m := range analyzer.FindMatches(content, namespaceRe, true) {
		fe.namespaces = appendUnique(fe.namespaces, m.Groups[0])
	}
	for _, m := range analyzer.FindMatches(content, roomRe, true) {
		fe.rooms = appendUnique(fe.rooms, m.Groups[0])
	}
	for _, m := range analyzer.FindMatches(content, middlewareRe, true) {
		name := m.Groups[0]
		if name == "" || name == "function" {
			name = "anonymous"
		}
		fe.middlewares = appendUnique(fe.middlewares, name)
	}

	// One textual occurrence yields one event even when several patterns
	// could describe it.
	seen := map[int]bool{}
	event := func(typ, name, emitter, room string, index int) {
		if seen[index] {
			return
		}
		seen[index] = true
		e := Event{
			ID:      fmt.Sprintf("%s-%s-%d", file, typ, index),
			Name:    name,
			Type:    typ,
			Emitter: emitter,
			Room:    room,
			File:    file,
			Line:    analyzer.LineNumber(content, index),
		}
		if typ == EventListener {
			end := min(len(content), index+validationReach)
			e.Validated = validationRe.MatchString(content[index:end])
		}
		eventAt = append(eventAt, index)
		fe.events = append(fe.events, e)
	}
	for _, m := range analyzer.FindMatches(content, listenerRe, true) {
		event(EventListener, m.Groups[1], m.Groups[0], "", m.Index)
	}
	for _, m := range analyzer.FindMatches(content, emitRe, true) {
		chain := m.Groups[1]
		room := ""
		if r := chainRoomRe.FindStringSubmatch(chain); r != nil {
			room = r[1]
		}
		emitter := m.Groups[0] + strings.Join(strings.Fields(chain), "")
		event(EventEmit, m.Groups[2], emitter, room, m.Index)
	}
	byOffset(fe.events, eventAt)
	return fe
}

// byOffset reorders items to follow their source offsets.
func byOffset[T any](items []T, offsets []int) {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return offsets[idx[a]] < offsets[idx[b]] })
	sorted := make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// importName picks the binding of an import clause. Named imports resolve
// to want when it is among them, else to their first binding.
func importName(clause, want string) string {
	if !strings.HasPrefix(clause, "{") {
		return clause
	}
	var first string
	for _, part := range strings.Split(strings.Trim(clause, "{}"), ",") {
		name := strings.TrimSpace(part)
		if i := strings.Index(name, " as "); i >= 0 {
			name = strings.TrimSpace(name[i+4:])
		}
		if name == "" {
			continue
		}
		if name == want {
			return name
		}
		if first == "" {
			first = name
		}
	}
	return or(first, want)
}
