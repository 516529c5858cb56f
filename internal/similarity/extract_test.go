package similarity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultVocabulary())
	require.NoError(t, err)
	return s
}

func TestKeywords(t *testing.T) {
	s := newTestScorer(t)

	text := "獣医師が教える！【猫の糖尿病】\n\n糖尿病は高齢猫に多い病気です。\n\n✅血液検査で診断\n✅インスリン治療\n✅食事療法が重要\n\n症状：多飲多尿、体重減少\n#猫のあれこれ"
	keywords := s.Keywords(text)

	for _, want := range []string{"糖尿病", "血液検査", "診断", "治療", "食事", "症状", "多飲多尿", "体重減少"} {
		assert.Contains(t, keywords, want)
	}
	assert.NotContains(t, keywords, "腎臓病")

	// Set semantics: 糖尿病 appears twice in the text but once in the result.
	count := 0
	for _, k := range keywords {
		if k == "糖尿病" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestKeywordsLongestTermWins(t *testing.T) {
	s := newTestScorer(t)

	// 血液検査 contains 検査; the longer term must match as a whole, and
	// the standalone 検査 elsewhere still matches separately.
	keywords := s.Keywords("血液検査と尿検査を受けましょう")
	assert.Contains(t, keywords, "血液検査")
	assert.Contains(t, keywords, "検査")
}

func TestKeywordsEmpty(t *testing.T) {
	s := newTestScorer(t)
	assert.Empty(t, s.Keywords("こんにちは、良い天気ですね"))
	assert.Empty(t, s.Keywords(""))
}

func TestMainPoints(t *testing.T) {
	s := newTestScorer(t)

	text := "獣医師が教える！【猫の腎臓病】\n\n✅早期発見が重要\n✅水分摂取を増やす\n💡食事療法が基本\n\n注意が必要な症状もあります。\n#猫のあれこれ"
	points := s.MainPoints(text)

	assert.Contains(t, points, "早期発見が重要")
	assert.Contains(t, points, "水分摂取を増やす")
	assert.Contains(t, points, "食事療法が基本")
	assert.Contains(t, points, "猫の腎臓病")
	// Attention clause runs to the sentence terminator.
	assert.Contains(t, points, "注意が必要な症状もあります。")
}

func TestMainPointsEmpty(t *testing.T) {
	s := newTestScorer(t)
	assert.Empty(t, s.MainPoints("ただのあいさつ文です"))
	assert.Empty(t, s.MainPoints(""))
}

func TestTopic(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bracket label wins",
			text: "獣医師が教える！【猫の腎臓病】糖尿病にも触れます",
			want: "猫の腎臓病",
		},
		{
			name: "disease before breed",
			text: "柴犬に多い関節炎の話",
			want: "関節炎",
		},
		{
			name: "breed fallback",
			text: "チワワの飼い方について",
			want: "チワワ",
		},
		{
			name: "sentinel when nothing matches",
			text: "今日はいい天気ですね",
			want: "general",
		},
		{
			name: "empty text",
			text: "",
			want: "general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Topic(tt.text))
		})
	}
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	custom := `
keywords:
  weather:
    - 晴れ
    - 雨
topics:
  diseases:
    - 花粉症
markers:
  bullets:
    - "✅"
  attention:
    - 警報
`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)

	s, err := NewScorer(vocab)
	require.NoError(t, err)

	assert.Equal(t, []string{"晴れ"}, s.Keywords("今日は晴れです"))
	assert.Equal(t, "花粉症", s.Topic("花粉症の季節"))
	assert.Contains(t, s.MainPoints("警報が出ています。"), "警報が出ています。")
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseVocabularyRejectsEmpty(t *testing.T) {
	_, err := ParseVocabulary([]byte("keywords: {}"))
	assert.Error(t, err)

	_, err = ParseVocabulary([]byte("keywords:\n  empty: []"))
	assert.Error(t, err)
}
