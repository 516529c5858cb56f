package similarity

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed vocab.yaml
var defaultVocabYAML []byte

// Vocabulary is the curated matching configuration: domain terms grouped
// by category, priority-ordered topic lists, and the marker glyphs used
// for main-point extraction. It is data, not code; deployments can grow it
// without rebuilding by loading a custom file.
type Vocabulary struct {
	// Keywords maps a category name to its term list.
	Keywords map[string][]string `yaml:"keywords"`

	// Topics are consulted in order by topic extraction: diseases first,
	// then breeds.
	Topics struct {
		Diseases []string `yaml:"diseases"`
		Breeds   []string `yaml:"breeds"`
	} `yaml:"topics"`

	// Markers drive main-point extraction.
	Markers struct {
		// Bullets are glyphs whose trailing text (up to end of line) is a
		// main point.
		Bullets []string `yaml:"bullets"`

		// Attention are words whose clause (up to the next sentence
		// terminator) is a main point.
		Attention []string `yaml:"attention"`
	} `yaml:"markers"`
}

// DefaultVocabulary returns the built-in veterinary vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabYAML)
	if err != nil {
		// The embedded file is validated by tests; this is unreachable in
		// a correct build.
		panic(fmt.Sprintf("similarity: embedded vocabulary invalid: %v", err))
	}
	return v
}

// LoadVocabulary reads a vocabulary file from disk.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	v, err := ParseVocabulary(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// ParseVocabulary decodes and validates vocabulary YAML.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if len(v.Keywords) == 0 {
		return nil, fmt.Errorf("vocabulary has no keyword categories")
	}
	for cat, terms := range v.Keywords {
		if len(terms) == 0 {
			return nil, fmt.Errorf("keyword category %q is empty", cat)
		}
	}
	return &v, nil
}
