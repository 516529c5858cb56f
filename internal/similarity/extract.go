package similarity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// bracketRE captures the label inside the 【…】 title convention.
var bracketRE = regexp.MustCompile(`【([^】]+)】`)

// Scorer extracts comparison features from raw post text and scores
// similarity, driven by a Vocabulary. All methods are pure; a Scorer is
// safe for concurrent use once built.
type Scorer struct {
	vocab *Vocabulary

	// keywordREs holds one case-insensitive alternation per keyword
	// category, longest term first so the most specific term wins.
	keywordREs []*regexp.Regexp

	bulletREs   []*regexp.Regexp
	attentionRE *regexp.Regexp
}

// NewScorer compiles the matching patterns for the given vocabulary.
func NewScorer(vocab *Vocabulary) (*Scorer, error) {
	s := &Scorer{vocab: vocab}

	cats := make([]string, 0, len(vocab.Keywords))
	for cat := range vocab.Keywords {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		re, err := compileAlternation(vocab.Keywords[cat])
		if err != nil {
			return nil, fmt.Errorf("keyword category %q: %w", cat, err)
		}
		s.keywordREs = append(s.keywordREs, re)
	}

	for _, marker := range vocab.Markers.Bullets {
		re, err := regexp.Compile(regexp.QuoteMeta(marker) + `\s*([^\n]+)`)
		if err != nil {
			return nil, fmt.Errorf("bullet marker %q: %w", marker, err)
		}
		s.bulletREs = append(s.bulletREs, re)
	}

	if len(vocab.Markers.Attention) > 0 {
		quoted := make([]string, len(vocab.Markers.Attention))
		for i, w := range vocab.Markers.Attention {
			quoted[i] = regexp.QuoteMeta(w)
		}
		re, err := regexp.Compile(`(?:` + strings.Join(quoted, "|") + `)[^\n]*?[。！？]`)
		if err != nil {
			return nil, fmt.Errorf("attention words: %w", err)
		}
		s.attentionRE = re
	}

	return s, nil
}

// compileAlternation builds a case-insensitive alternation of literal
// terms, longest first, so overlapping terms match at their full length.
func compileAlternation(terms []string) (*regexp.Regexp, error) {
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len([]rune(sorted[i])) > len([]rune(sorted[j]))
	})
	for i, t := range sorted {
		sorted[i] = regexp.QuoteMeta(t)
	}
	return regexp.Compile(`(?i)(?:` + strings.Join(sorted, "|") + `)`)
}

// Normalize returns the canonical comparison form of text.
func (s *Scorer) Normalize(text string) string {
	return Normalize(text)
}

// ContentHash returns a stable digest of the normalized text.
func (s *Scorer) ContentHash(text string) string {
	return ContentHash(text)
}

// Keywords scans raw text against every vocabulary category and returns
// the union of hits as a sorted, de-duplicated list. Matching is substring
// based over the original text, not the normalized form, so terms split by
// line breaks stay unmatched just as a reader would not see them.
func (s *Scorer) Keywords(text string) []string {
	set := make(map[string]struct{})
	for _, re := range s.keywordREs {
		for _, hit := range re.FindAllString(text, -1) {
			set[hit] = struct{}{}
		}
	}
	return sortedSlice(set)
}

// MainPoints extracts the post's callout phrases: text after a bullet
// marker up to the end of the line, labels inside 【…】, and clauses led by
// an attention word up to the next sentence terminator. Matches are
// trimmed, empties dropped, and duplicates collapsed.
func (s *Scorer) MainPoints(text string) []string {
	set := make(map[string]struct{})

	add := func(p string) {
		p = strings.TrimSpace(p)
		if p != "" {
			set[p] = struct{}{}
		}
	}

	for _, re := range s.bulletREs {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}
	for _, m := range bracketRE.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	if s.attentionRE != nil {
		for _, m := range s.attentionRE.FindAllString(text, -1) {
			add(m)
		}
	}

	return sortedSlice(set)
}

// Topic returns the post's subject label: the first 【…】 label if present,
// otherwise the first disease from the vocabulary found in the text,
// otherwise the first breed, otherwise the "general" sentinel.
func (s *Scorer) Topic(text string) string {
	if m := bracketRE.FindStringSubmatch(text); m != nil {
		if label := strings.TrimSpace(m[1]); label != "" {
			return label
		}
	}
	for _, disease := range s.vocab.Topics.Diseases {
		if strings.Contains(text, disease) {
			return disease
		}
	}
	for _, breed := range s.vocab.Topics.Breeds {
		if strings.Contains(text, breed) {
			return breed
		}
	}
	return "general"
}

func sortedSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
