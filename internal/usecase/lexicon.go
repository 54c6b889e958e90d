package usecase

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/allergyscan/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed allergens.yaml
var lexiconYAML []byte

// lexiconFile is the on-disk shape of the allergen keyword data
type lexiconFile struct {
	Version    int                 `yaml:"version"`
	Categories map[string][]string `yaml:"categories"`
}

// lexiconEntry holds the keywords for one category plus their precompiled
// word-boundary patterns ("milk" must not match inside "milkweed").
type lexiconEntry struct {
	Category domain.AllergenCategory
	Keywords []string
	Patterns []*regexp.Regexp
}

// Lexicon is the immutable allergen keyword table, built once at startup.
// Entries keep the canonical category order for deterministic matching.
type Lexicon struct {
	entries []lexiconEntry
	version int
}

// LoadLexicon parses and validates the embedded allergen keyword data.
// Validation happens here only; matching never fails on lexicon content.
func LoadLexicon() (*Lexicon, error) {
	return loadLexicon(lexiconYAML)
}

func loadLexicon(data []byte) (*Lexicon, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidLexicon, err)
	}
	if file.Version < 1 {
		return nil, fmt.Errorf("%w: missing version", domain.ErrInvalidLexicon)
	}

	lex := &Lexicon{version: file.Version}
	for _, category := range domain.Categories() {
		keywords, ok := file.Categories[string(category)]
		if !ok || len(keywords) == 0 {
			return nil, fmt.Errorf("%w: category %q has no keywords", domain.ErrInvalidLexicon, category)
		}

		entry := lexiconEntry{Category: category}
		seen := make(map[string]bool, len(keywords))
		for _, kw := range keywords {
			normalized := Normalize(kw)
			if normalized == "" {
				return nil, fmt.Errorf("%w: empty keyword in category %q", domain.ErrInvalidLexicon, category)
			}
			if seen[normalized] {
				return nil, fmt.Errorf("%w: duplicate keyword %q in category %q", domain.ErrInvalidLexicon, normalized, category)
			}
			seen[normalized] = true
			entry.Keywords = append(entry.Keywords, normalized)
			// Word-boundary, plural-tolerant: "milk" matches "milk" but not
			// "milkweed"; "hazelnut" still matches "hazelnuts"
			entry.Patterns = append(entry.Patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(normalized)+`s?\b`))
		}
		lex.entries = append(lex.entries, entry)
	}

	// Reject categories outside the closed set
	for name := range file.Categories {
		if _, err := domain.ParseCategory(name); err != nil {
			return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidLexicon, name)
		}
	}

	return lex, nil
}

// Version returns the lexicon data version
func (l *Lexicon) Version() int {
	return l.version
}

// Keywords returns the keyword list for a category, or nil if not present
func (l *Lexicon) Keywords(category domain.AllergenCategory) []string {
	for _, e := range l.entries {
		if e.Category == category {
			return e.Keywords
		}
	}
	return nil
}
