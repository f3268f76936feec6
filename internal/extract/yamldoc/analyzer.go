package yamldoc

import (
	"context"

	"structscope/internal/analyzer"
)

var Extensions = []string{".yaml", ".yml"}

// FileDocument is the per-file output of Analyzer.
type FileDocument struct {
	Path     string   `json:"path"`
	Kind     string   `json:"kind"`
	Keys     []string `json:"keys"`
	Metadata Metadata `json:"metadata"`
	Issues   []Issue  `json:"issues"`
	Compose  *Compose `json:"compose,omitempty"`
}

type Result struct {
	analyzer.Result
	Files []FileDocument `json:"files"`
}

// Analyzer summarizes every YAML file it is given.
type Analyzer struct {
	*analyzer.Base
}

func NewAnalyzer(opts ...analyzer.Option) (*Analyzer, error) {
	b, err := analyzer.NewBase("yaml", opts...)
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
	res := &Result{Result: a.NewResult(), Files: []FileDocument{}}
	defer done(&res.Result)

	outcomes := analyzer.ProcessBatch(ctx, files, a.BatchSize(), func(ctx context.Context, p string) (FileDocument, error) {
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return FileDocument{}, err
		}
		return Summarize(p, content), nil
	})
	for i, o := range outcomes {
		if o.Err != nil {
			res.AddError("%s: %v", files[i], o.Err)
			continue
		}
		for _, is := range o.Value.Issues {
			if is.Severity == SeverityError {
				res.AddError("%s:%d: %s", files[i], is.Line, is.Message)
			}
		}
		res.Files = append(res.Files, o.Value)
		a.Progress(i+1, len(files), "analyzed "+files[i])
	}
	res.Metadata["totalFiles"] = len(res.Files)
	analyzer.ValidateResult(&res.Result)
	return res, nil
}

// Summarize classifies one document and collects its lint issues.
func Summarize(path, content string) FileDocument {
	doc := Parse(content)
	fd := FileDocument{
		Path:     path,
		Kind:     "config",
		Keys:     Keys(doc.Data),
		Metadata: doc.Metadata,
		Issues:   Validate(content),
	}
	if fd.Keys == nil {
		fd.Keys = []string{}
	}
	m, _ := doc.Data.(map[string]any)
	switch {
	case m["openapi"] != nil || m["swagger"] != nil:
		fd.Kind = "openapi"
	case m["services"] != nil:
		if c, err := ParseCompose(content); err == nil {
			fd.Kind = "compose"
			fd.Compose = c
		}
	}
	return fd
}
