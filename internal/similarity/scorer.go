package similarity

import "github.com/pmezard/go-difflib/difflib"

// Weights of the composite score. Raw text similarity alone misses
// paraphrases; keyword overlap catches topic-level restatement; main-point
// overlap catches bullet-list reuse. Points weigh least because bullet
// phrasing varies the most.
const (
	textWeight    = 0.4
	keywordWeight = 0.4
	pointWeight   = 0.2
)

// Score returns a composite similarity in [0, 1] between two posts.
// Identical normalized content scores exactly 1.0 without touching the
// component signals. Score(a, b) == Score(b, a) for all inputs.
func (s *Scorer) Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}

	textSim := sequenceRatio(na, nb)
	keywordSim := jaccard(s.Keywords(a), s.Keywords(b))
	pointSim := jaccard(s.MainPoints(a), s.MainPoints(b))

	return textWeight*textSim + keywordWeight*keywordSim + pointWeight*pointSim
}

// sequenceRatio is the matched-run ratio of two normalized strings,
// compared rune by rune. The matcher's tie-breaking depends on operand
// order, so the operands are put in a canonical order first; the junk
// heuristic is disabled for the same reason. Both together keep the ratio
// symmetric.
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if a > b {
		a, b = b, a
	}
	m := difflib.NewMatcherWithJunk(splitRunes(a), splitRunes(b), false, nil)
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// jaccard is |A∩B| / |A∪B| over two term lists. Two empty sets score 0.0:
// no shared vocabulary is treated as no evidence of similarity from this
// signal, not as a perfect match.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	union := make(map[string]struct{}, len(a)+len(b))
	inA := make(map[string]struct{}, len(a))
	for _, v := range a {
		union[v] = struct{}{}
		inA[v] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	intersection := 0
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		union[v] = struct{}{}
		if _, ok := inA[v]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(union))
}
