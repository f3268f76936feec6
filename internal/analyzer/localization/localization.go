// Package localization measures translation coverage across languages and
// cross-checks it with the keys code actually uses.
package localization

import (
	"context"
	"fmt"
	"strings"

	"structscope/internal/analyzer"
)

var (
	TranslationExtensions = []string{".json", ".yaml", ".yml", ".po", ".properties"}
	CodeExtensions        = []string{".js", ".ts", ".jsx", ".tsx", ".vue", ".html"}
)

// Occurrence is one definition site of a key.
type Occurrence struct {
	Language string `json:"language"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Key is a translation key with its text per language. File and Line point
// at the first definition.
type Key struct {
	ID           string            `json:"id"`
	Key          string            `json:"key"`
	Translations map[string]string `json:"translations"`
	File         string            `json:"filePath"`
	Line         int               `json:"line"`
	Occurrences  []Occurrence      `json:"occurrences"`
}

type MissingKey struct {
	Key              string   `json:"key"`
	MissingLanguages []string `json:"missingLanguages"`
	FoundIn          []string `json:"foundIn"`
}

type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

type DuplicateKey struct {
	Key       string     `json:"key"`
	Language  string     `json:"language"`
	Locations []Location `json:"locations"`
}

type Result struct {
	analyzer.Result
	Keys                 []Key          `json:"keys"`
	Languages            []string       `json:"languages"`
	Coverage             map[string]int `json:"coverage"`
	UsedKeys             []string       `json:"usedKeys"`
	MissingKeys          []MissingKey   `json:"missingKeys"`
	UnusedKeys           []Key          `json:"unusedKeys"`
	DuplicateKeys        []DuplicateKey `json:"duplicateKeys"`
	TotalKeys            int            `json:"totalKeys"`
	TranslatedKeys       int            `json:"translatedKeys"`
	CompletionPercentage int            `json:"completionPercentage"`
}

type Analyzer struct {
	*analyzer.Base
}

func New(opts ...analyzer.Option) (*Analyzer, error) {
	b, err := analyzer.NewBase("localization", opts...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{Base: b}, nil
}

type translationFile struct {
	language string
	parsed   parsed
}

func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*Result, error) {
	if err := analyzer.CheckPaths(paths); err != nil {
		return nil, err
	}
	translations := analyzer.FilterFiles(paths, TranslationExtensions)
	code := analyzer.FilterFiles(paths, CodeExtensions)
	ctx, done := a.Begin(ctx, len(translations)+len(code))
	res := &Result{
		Result:        a.NewResult(),
		Keys:          []Key{},
		Languages:     []string{},
		Coverage:      map[string]int{},
		UsedKeys:      []string{},
		MissingKeys:   []MissingKey{},
		UnusedKeys:    []Key{},
		DuplicateKeys: []DuplicateKey{},
	}
	defer done(&res.Result)

	a.Progress(0, 100, "Starting translation analysis")
	a.Progress(10, 100, "Reading translation files")
	outcomes := analyzer.ProcessBatch(ctx, translations, a.BatchSize(), func(ctx context.Context, p string) (translationFile, error) {
		lang, ok := Language(p)
		if !ok {
			return translationFile{}, nil
		}
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return translationFile{}, err
		}
		pf, err := ParseFile(p, content)
		return translationFile{language: lang, parsed: pf}, err
	})

	catalog := newCatalog()
	skipped := 0
	for i, o := range outcomes {
		switch {
		case o.Err != nil:
			res.AddError("Failed to parse translation file %s: %v", translations[i], o.Err)
		case o.Value.language == "":
			skipped++
			a.Logger().Debug("no language in path", "file", translations[i])
		default:
			if o.Value.parsed.warning != "" {
				res.AddWarning("%s", o.Value.parsed.warning)
			}
			catalog.add(o.Value.language, translations[i], o.Value.parsed.entries)
		}
	}
	res.Keys, res.Languages = catalog.keys(), catalog.languages

	a.Progress(40, 100, "Extracting keys from code")
	used := analyzer.ProcessBatch(ctx, code, a.BatchSize(), func(ctx context.Context, p string) ([]string, error) {
		content, err := a.ReadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		return UsedKeys(p, content), nil
	})
	seen := map[string]bool{}
	for i, o := range used {
		if o.Err != nil {
			res.AddError("Failed to analyze %s: %v", code[i], o.Err)
			continue
		}
		for _, k := range o.Value {
			if !seen[k] {
				seen[k] = true
				res.UsedKeys = append(res.UsedKeys, k)
			}
		}
	}

	a.Progress(70, 100, "Computing coverage")
	res.Coverage = Coverage(res.Keys, res.Languages)
	res.MissingKeys = MissingKeys(res.UsedKeys, res.Keys, res.Languages)
	res.UnusedKeys = UnusedKeys(res.Keys, res.UsedKeys)
	res.DuplicateKeys = DuplicateKeys(res.Keys)
	res.TotalKeys = len(res.Keys)
	res.TranslatedKeys = TranslatedCount(res.Keys, res.Languages)
	res.CompletionPercentage = CompletionPercentage(res.Keys, res.Languages)

	a.Progress(90, 100, "Building metadata")
	most, least := Extremes(res.Coverage, res.Languages)
	res.Metadata["totalTranslationFiles"] = len(translations)
	res.Metadata["skippedTranslationFiles"] = skipped
	res.Metadata["totalCodeFiles"] = len(code)
	res.Metadata["averageCoverage"] = AverageCoverage(res.Coverage)
	res.Metadata["mostTranslatedLanguage"] = most
	res.Metadata["leastTranslatedLanguage"] = least
	a.Progress(100, 100, "Translation analysis complete")
	analyzer.ValidateResult(&res.Result)
	return res, nil
}

// catalog merges entries from every translation file into keys, keeping
// first-seen order for keys and languages.
type catalog struct {
	order     []string
	byKey     map[string]*Key
	languages []string
	langSeen  map[string]bool
}

func newCatalog() *catalog {
	return &catalog{byKey: map[string]*Key{}, languages: []string{}, langSeen: map[string]bool{}}
}

func (c *catalog) add(lang, file string, entries []Entry) {
	if !c.langSeen[lang] {
		c.langSeen[lang] = true
		c.languages = append(c.languages, lang)
	}
	for _, e := range entries {
		k, ok := c.byKey[e.Key]
		if !ok {
			k = &Key{
				ID:           fmt.Sprintf("key-%s", e.Key),
				Key:          e.Key,
				Translations: map[string]string{},
				File:         file,
				Line:         e.Line,
			}
			c.byKey[e.Key] = k
			c.order = append(c.order, e.Key)
		}
		// Blank text counts as absent and never replaces real text.
		if strings.TrimSpace(e.Value) != "" {
			k.Translations[lang] = e.Value
		}
		k.Occurrences = append(k.Occurrences, Occurrence{Language: lang, File: file, Line: e.Line})
	}
}

func (c *catalog) keys() []Key {
	out := make([]Key, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, *c.byKey[k])
	}
	return out
}
