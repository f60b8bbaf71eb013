// Package locale holds the display strings for dimensions, questions,
// classification bands and consistency messages.
//
// Tables are embedded YAML parsed once on first use and never written
// afterwards. Lookups are pure; an unknown language falls back to English
// and an unknown key falls back to the key itself.
package locale

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Language is a supported display language code.
type Language string

const (
	English Language = "en"
	German  Language = "de"
	French  Language = "fr"

	Default = English
)

// Table is the set of strings for one language.
type Table struct {
	Name        string            `yaml:"name"`
	Dimensions  map[string]string `yaml:"dimensions"`
	Questions   map[string]string `yaml:"questions"`
	Bands       map[string]string `yaml:"bands"`
	Consistency map[string]string `yaml:"consistency"`
	Messages    map[string]string `yaml:"messages"`
}

var loadTables = sync.OnceValues(func() (map[Language]Table, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}

	tables := make(map[Language]Table, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var t Table
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		tables[Language(strings.TrimSuffix(name, ".yaml"))] = t
	}
	return tables, nil
})

func tables() map[Language]Table {
	t, err := loadTables()
	if err != nil {
		// Embedded data is compiled in; a parse failure is a build defect.
		panic(err)
	}
	return t
}

// Supported returns the available languages, sorted.
func Supported() []Language {
	t := tables()
	langs := make([]Language, 0, len(t))
	for lang := range t {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// ParseLanguage validates a language code. Matching is case-insensitive.
func ParseLanguage(code string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := tables()[lang]; !ok {
		return "", fmt.Errorf("unsupported language %q (supported: %s)", code, joinLanguages(Supported()))
	}
	return lang, nil
}

func joinLanguages(langs []Language) string {
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

// Lookup returns the table for lang, or the default table.
func Lookup(lang Language) Table {
	t := tables()
	if table, ok := t[lang]; ok {
		return table
	}
	return t[Default]
}

func lookup(lang Language, pick func(Table) map[string]string, key string) string {
	if s, ok := pick(Lookup(lang))[key]; ok {
		return s
	}
	if s, ok := pick(Lookup(Default))[key]; ok {
		return s
	}
	return key
}

// DimensionLabel returns the localized name of a dimension key.
func DimensionLabel(lang Language, key string) string {
	return lookup(lang, func(t Table) map[string]string { return t.Dimensions }, key)
}

// QuestionText returns the localized statement for a question id.
func QuestionText(lang Language, id string) string {
	return lookup(lang, func(t Table) map[string]string { return t.Questions }, id)
}

// BandLabel returns the localized interpretation of a band id.
func BandLabel(lang Language, bandID string) string {
	return lookup(lang, func(t Table) map[string]string { return t.Bands }, bandID)
}

// ConsistencyLabel returns the localized name of a consistency level.
func ConsistencyLabel(lang Language, level string) string {
	return lookup(lang, func(t Table) map[string]string { return t.Consistency }, level)
}

// Message returns a localized free-form message.
func Message(lang Language, key string) string {
	return lookup(lang, func(t Table) map[string]string { return t.Messages }, key)
}
