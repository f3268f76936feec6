package protodef

import (
	"context"
	"sort"
	"strings"

	"structscope/internal/analyzer"
)

var Extensions = []string{".proto"}

var scalarTypes = map[string]bool{
	"double": true, "float": true, "int32": true, "int64": true, "uint32": true,
	"uint64": true, "sint32": true, "sint64": true, "fixed32": true, "fixed64": true,
	"sfixed32": true, "sfixed64": true, "bool": true, "string": true, "bytes": true,
}

// IsScalar reports whether t is a protobuf scalar type.
func IsScalar(t string) bool { return scalarTypes[t] }

// Dependency links a file or message to what it needs.
type Dependency struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"` // import | message_ref
}

type ServiceStats struct {
	Total     int `json:"total"`
	Methods   int `json:"methods"`
	Streaming int `json:"streaming"`
}

type MessageStats struct {
	Total  int `json:"total"`
	Fields int `json:"fields"`
	Nested int `json:"nested"`
}

type Statistics struct {
	Services ServiceStats `json:"services"`
	Messages MessageStats `json:"messages"`
	Enums    int          `json:"enums"`
}

type Result struct {
	analyzer.Result
	Files        []*File      `json:"files"`
	Dependencies []Dependency `json:"dependencies"`
	Statistics   Statistics   `json:"statistics"`
}

type Analyzer struct {
	*analyzer.Base
}

func NewAnalyzer(opts ...analyzer.Option) (*Analyzer, error) {
	b, err := analyzer.NewBase("proto", opts...)
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
	res := &Result{Result: a.NewResult(), Files: []*File{}, Dependencies: []Dependency{}}
	defer done(&res.Result)

	type parsed struct {
		file   *File
		issues []Issue
		err    error
	}
	outcomes := analyzer.ProcessBatch(ctx, files, a.BatchSize(), func(ctx context.Context, p string) (parsed, error) {
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return parsed{}, err
		}
		f, perr := Parse(p, content)
		return parsed{file: f, issues: Validate(content), err: perr}, nil
	})
	for i, o := range outcomes {
		if o.Err != nil {
			res.AddError("%s: %v", files[i], o.Err)
			continue
		}
		if o.Value.err != nil {
			res.AddWarning("%v (pattern fallback used)", o.Value.err)
		}
		for _, is := range o.Value.issues {
			res.AddWarning("%s:%d: %s", files[i], is.Line, is.Message)
		}
		res.Files = append(res.Files, o.Value.file)
		a.Progress(i+1, len(files), "parsed "+files[i])
	}

	known := knownTypes(res.Files)
	for _, f := range res.Files {
		for _, imp := range f.Imports {
			res.Dependencies = append(res.Dependencies, Dependency{From: f.Path, To: imp, Kind: "import"})
		}
		walkMessages(f.Messages, "", func(m Message, full string) {
			for _, fld := range m.Fields {
				if IsScalar(fld.Type) {
					continue
				}
				res.Dependencies = append(res.Dependencies, Dependency{From: full, To: fld.Type, Kind: "message_ref"})
				if !known.has(fld.Type) {
					res.AddWarning("%s: field %s.%s references unknown type %s", f.Path, full, fld.Name, fld.Type)
				}
			}
		})
		for _, s := range f.Services {
			for _, m := range s.Methods {
				for _, t := range []string{m.Request, m.Response} {
					if !known.has(t) {
						res.AddWarning("%s: rpc %s.%s references unknown type %s", f.Path, s.Name, m.Name, t)
					}
				}
			}
		}
	}

	res.Statistics = statistics(res.Files)
	res.Metadata["totalFiles"] = len(res.Files)
	res.Metadata["totalDependencies"] = len(res.Dependencies)
	analyzer.ValidateResult(&res.Result)
	return res, nil
}

func walkMessages(msgs []Message, prefix string, fn func(Message, string)) {
	for _, m := range msgs {
		full := m.Name
		if prefix != "" {
			full = prefix + "." + m.Name
		}
		fn(m, full)
		walkMessages(m.Nested, full, fn)
	}
}

type typeSet map[string]bool

// has accepts a type by its simple name, dotted path or package-qualified name.
func (s typeSet) has(t string) bool {
	t = strings.TrimPrefix(t, ".")
	if s[t] || strings.HasPrefix(t, "google.protobuf.") {
		return true
	}
	if i := strings.LastIndex(t, "."); i >= 0 {
		return s[t[i+1:]]
	}
	return false
}

func knownTypes(files []*File) typeSet {
	s := typeSet{}
	add := func(pkg, name string) {
		s[name] = true
		if pkg != "" {
			s[pkg+"."+name] = true
		}
	}
	for _, f := range files {
		for _, e := range f.Enums {
			add(f.Package, e.Name)
		}
		walkMessages(f.Messages, "", func(m Message, full string) {
			add(f.Package, full)
			add(f.Package, m.Name)
			for _, e := range m.Enums {
				add(f.Package, full+"."+e.Name)
				add(f.Package, e.Name)
			}
		})
	}
	return s
}

func statistics(files []*File) Statistics {
	var st Statistics
	for _, f := range files {
		st.Enums += len(f.Enums)
		for _, s := range f.Services {
			st.Services.Total++
			st.Services.Methods += len(s.Methods)
			for _, m := range s.Methods {
				if m.ClientStreaming || m.ServerStreaming {
					st.Services.Streaming++
				}
			}
		}
		walkMessages(f.Messages, "", func(m Message, full string) {
			st.Messages.Total++
			st.Messages.Fields += len(m.Fields)
			st.Enums += len(m.Enums)
			if strings.Contains(full, ".") {
				st.Messages.Nested++
			}
		})
	}
	return st
}

// MessageNames lists every message by its dotted path, sorted.
func MessageNames(f *File) []string {
	var out []string
	walkMessages(f.Messages, "", func(_ Message, full string) { out = append(out, full) })
	sort.Strings(out)
	return out
}
