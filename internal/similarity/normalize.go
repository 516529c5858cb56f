// Package similarity scores how alike two social-media posts are. It
// combines raw text similarity over a normalized form with overlap of
// extracted keywords and main points, the way an editor would judge
// "is this the same post again?".
package similarity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// wordClass covers ASCII word characters plus the Japanese scripts the
// posts are written in: hiragana, katakana (including the long-vowel
// mark), and the CJK unified ideographs.
const wordClass = `\w\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}`

var (
	// hashtagRE matches a whole hashtag token, marker plus body, so the
	// body does not leak into the normalized text.
	hashtagRE = regexp.MustCompile(`#[` + wordClass + `]+`)

	// strippedRE matches everything that is not a word character:
	// whitespace, line breaks, punctuation, emoji, decorative symbols.
	strippedRE = regexp.MustCompile(`[^` + wordClass + `]`)
)

// Normalize canonicalizes post text for comparison: hashtag tokens are
// removed entirely, every non-word character (whitespace, punctuation,
// emoji) is stripped, and the result is lowercased. It is a pure function,
// total over all inputs, and idempotent.
func Normalize(text string) string {
	text = hashtagRE.ReplaceAllString(text, "")
	text = strippedRE.ReplaceAllString(text, "")
	return strings.ToLower(text)
}

// ContentHash returns the hex digest of the normalized text. Equal
// normalized content always produces equal hashes, across calls and across
// process restarts.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
