package localization

import (
	"math"
	"strings"
)

func translated(k Key, lang string) bool {
	return strings.TrimSpace(k.Translations[lang]) != ""
}

// Coverage is the rounded share of keys with non-empty text, per language.
// A language with no keys at all is fully covered.
func Coverage(keys []Key, languages []string) map[string]int {
	out := make(map[string]int, len(languages))
	for _, lang := range languages {
		if len(keys) == 0 {
			out[lang] = 100
			continue
		}
		n := 0
		for _, k := range keys {
			if translated(k, lang) {
				n++
			}
		}
		out[lang] = percent(n, len(keys))
	}
	return out
}

// TranslatedCount counts (key, language) pairs with non-empty text.
func TranslatedCount(keys []Key, languages []string) int {
	n := 0
	for _, k := range keys {
		for _, lang := range languages {
			if translated(k, lang) {
				n++
			}
		}
	}
	return n
}

// CompletionPercentage is TranslatedCount over every (key, language) pair.
func CompletionPercentage(keys []Key, languages []string) int {
	if len(keys) == 0 || len(languages) == 0 {
		return 100
	}
	return percent(TranslatedCount(keys, languages), len(keys)*len(languages))
}

// MissingKeys lists used keys that are undefined, or empty in at least one
// language. Defined but unused keys never appear here.
func MissingKeys(used []string, keys []Key, languages []string) []MissingKey {
	byKey := make(map[string]Key, len(keys))
	for _, k := range keys {
		byKey[k.Key] = k
	}
	out := []MissingKey{}
	for _, u := range used {
		k, ok := byKey[u]
		if !ok {
			out = append(out, MissingKey{Key: u, MissingLanguages: append([]string{}, languages...), FoundIn: []string{}})
			continue
		}
		m := MissingKey{Key: u, MissingLanguages: []string{}, FoundIn: []string{}}
		for _, lang := range languages {
			if translated(k, lang) {
				m.FoundIn = append(m.FoundIn, lang)
			} else {
				m.MissingLanguages = append(m.MissingLanguages, lang)
			}
		}
		if len(m.MissingLanguages) > 0 {
			out = append(out, m)
		}
	}
	return out
}

func UnusedKeys(keys []Key, used []string) []Key {
	set := make(map[string]bool, len(used))
	for _, u := range used {
		set[u] = true
	}
	out := []Key{}
	for _, k := range keys {
		if !set[k.Key] {
			out = append(out, k)
		}
	}
	return out
}

// DuplicateKeys reports keys defined more than once within one language.
// A key defined once in each of several languages is not a duplicate and is
// not reported.
func DuplicateKeys(keys []Key) []DuplicateKey {
	out := []DuplicateKey{}
	for _, k := range keys {
		var langs []string
		byLang := map[string][]Location{}
		for _, o := range k.Occurrences {
			if _, ok := byLang[o.Language]; !ok {
				langs = append(langs, o.Language)
			}
			byLang[o.Language] = append(byLang[o.Language], Location{File: o.File, Line: o.Line})
		}
		for _, lang := range langs {
			if locs := byLang[lang]; len(locs) > 1 {
				out = append(out, DuplicateKey{Key: k.Key, Language: lang, Locations: locs})
			}
		}
	}
	return out
}

// AverageCoverage is the rounded mean of the per-language coverage, 0 with
// no languages.
func AverageCoverage(coverage map[string]int) int {
	if len(coverage) == 0 {
		return 0
	}
	sum := 0
	for _, c := range coverage {
		sum += c
	}
	return int(math.Round(float64(sum) / float64(len(coverage))))
}

// Extremes returns the best and worst covered languages. Ties go to the
// language listed first.
func Extremes(coverage map[string]int, languages []string) (most, least string) {
	for i, lang := range languages {
		c := coverage[lang]
		if i == 0 || c > coverage[most] {
			most = lang
		}
		if i == 0 || c < coverage[least] {
			least = lang
		}
	}
	return most, least
}

func percent(n, total int) int {
	return int(math.Round(float64(n) / float64(total) * 100))
}
