// Package messaging maps socket connections and the events flowing over
// them.
package messaging

import (
	"context"
	"fmt"
	"slices"

	"structscope/internal/analyzer"
)

var Extensions = []string{".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs"}

const (
	ConnServer = "server"
	ConnClient = "client"
	ConnNative = "native"

	EventListener = "listener"
	EventEmit     = "emit"
)

// lifecycleEvents are listened for without any matching emit in user code.
var lifecycleEvents = map[string]bool{
	"connection": true, "connect": true, "disconnect": true, "disconnecting": true,
	"connect_error": true, "error": true, "open": true, "close": true, "message": true,
	"reconnect": true, "reconnect_attempt": true, "reconnect_error": true, "reconnect_failed": true,
}

// IsLifecycle reports whether name is a transport lifecycle event.
func IsLifecycle(name string) bool { return lifecycleEvents[name] }

type Connection struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	File string `json:"filePath"`
	Line int    `json:"line"`
}

type Event struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Emitter   string `json:"emitter"`
	Room      string `json:"room,omitempty"`
	Validated bool   `json:"validation"`
	File      string `json:"filePath"`
	Line      int    `json:"line"`
}

type Pair struct {
	Emit     Event `json:"emit"`
	Listener Event `json:"listener"`
}

type Result struct {
	analyzer.Result
	Connections    []Connection `json:"connections"`
	Events         []Event      `json:"events"`
	Rooms          []string     `json:"rooms"`
	Namespaces     []string     `json:"namespaces"`
	Middlewares    []string     `json:"middlewares"`
	Pairs          []Pair       `json:"matched"`
	Unmatched      []Event      `json:"unmatched"`
	SecurityIssues []string     `json:"securityIssues"`
}

type fileEvents struct {
	connections []Connection
	events      []Event
	rooms       []string
	namespaces  []string
	middlewares []string
}

type Analyzer struct {
	*analyzer.Base
}

func New(opts ...analyzer.Option) (*Analyzer, error) {
	b, err := analyzer.NewBase("messaging", opts...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{Base: b}, nil
}

func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*Result, error) {
	if err := analyzer.CheckPaths(paths); err != nil {
		return nil, err
	}
	files := analyzer.FilterFiles(paths, Extensions)
	ctx, done := a.Begin(ctx, len(files))
	res := &Result{
		Result:      a.NewResult(),
		Connections: []Connection{},
		Events:      []Event{},
		Rooms:       []string{},
		Namespaces:  []string{},
		Middlewares: []string{},
	}
	defer done(&res.Result)

	outcomes := analyzer.ProcessBatch(ctx, files, a.BatchSize(), func(ctx context.Context, p string) (fileEvents, error) {
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return fileEvents{}, err
		}
		return Scan(p, analyzer.RemoveComments(content)), nil
	})
	for i, o := range outcomes {
		a.Progress(i+1, len(files), "Analyzed "+files[i])
		if o.Err != nil {
			res.AddError("Failed to analyze %s: %v", files[i], o.Err)
			continue
		}
		res.Connections = append(res.Connections, o.Value.connections...)
		res.Events = append(res.Events, o.Value.events...)
		res.Rooms = appendUnique(res.Rooms, o.Value.rooms...)
		res.Namespaces = appendUnique(res.Namespaces, o.Value.namespaces...)
		res.Middlewares = appendUnique(res.Middlewares, o.Value.middlewares...)
	}

	res.Pairs, res.Unmatched = PairEvents(res.Events)
	for _, e := range res.Unmatched {
		switch {
		case e.Type == EventEmit:
			res.AddWarning("Event '%s' emitted at %s:%d has no listener", e.Name, e.File, e.Line)
		case !IsLifecycle(e.Name):
			res.AddWarning("Listener for '%s' at %s:%d has no emitter", e.Name, e.File, e.Line)
		}
	}
	res.SecurityIssues = SecurityIssues(res)

	emits := 0
	for _, e := range res.Events {
		if e.Type == EventEmit {
			emits++
		}
	}
	res.Metadata["totalConnections"] = len(res.Connections)
	res.Metadata["totalEvents"] = len(res.Events)
	res.Metadata["emits"] = emits
	res.Metadata["listeners"] = len(res.Events) - emits
	res.Metadata["pairedEvents"] = len(res.Pairs)
	res.Metadata["unmatchedEvents"] = len(res.Unmatched)
	analyzer.ValidateResult(&res.Result)
	return res, nil
}

// PairEvents links each emit to the first listener of the same name.
// Emits without a listener and listeners never linked are returned as
// unmatched, emits first.
func PairEvents(events []Event) ([]Pair, []Event) {
	pairs := []Pair{}
	unmatched := []Event{}
	first := map[string]Event{}
	for _, e := range events {
		if e.Type != EventListener {
			continue
		}
		if _, ok := first[e.Name]; !ok {
			first[e.Name] = e
		}
	}
	paired := map[string]bool{}
	for _, e := range events {
		if e.Type != EventEmit {
			continue
		}
		l, ok := first[e.Name]
		if !ok {
			unmatched = append(unmatched, e)
			continue
		}
		pairs = append(pairs, Pair{Emit: e, Listener: l})
		paired[l.ID] = true
	}
	for _, e := range events {
		if e.Type == EventListener && !paired[e.ID] {
			unmatched = append(unmatched, e)
		}
	}
	return pairs, unmatched
}

// SecurityIssues flags servers without middleware and server-side
// listeners that never validate their payload.
func SecurityIssues(res *Result) []string {
	issues := []string{}
	serverFiles := map[string]bool{}
	for _, c := range res.Connections {
		if c.Type != ConnServer {
			continue
		}
		serverFiles[c.File] = true
		if len(res.Middlewares) == 0 {
			issues = append(issues, fmt.Sprintf("No authentication middleware registered for server at %s:%d", c.File, c.Line))
		}
	}
	for _, e := range res.Events {
		if e.Type == EventListener && serverFiles[e.File] && !e.Validated && !IsLifecycle(e.Name) {
			issues = append(issues, fmt.Sprintf("Listener '%s' at %s:%d does not validate its payload", e.Name, e.File, e.Line))
		}
	}
	return issues
}

func appendUnique(dst []string, items ...string) []string {
	for _, s := range items {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
