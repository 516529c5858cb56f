package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `window.YTD.tweets.part0 = [
  {
    "tweet": {
      "id_str": "1",
      "full_text": "猫の健康チェックを習慣に🐱 #猫のあれこれ"
    }
  },
  {
    "tweet": {
      "id_str": "2",
      "full_text": "【散歩のコツ】リードは短めに #獣医が教える犬のはなし"
    }
  },
  {
    "tweet": {
      "id_str": "3",
      "full_text": "今日のランチは美味しかった"
    }
  },
  {
    "tweet": {
      "id_str": "4"
    }
  }
];`

func TestParseTweets(t *testing.T) {
	texts, err := ParseTweets(strings.NewReader(sampleExport))
	require.NoError(t, err)

	// The empty-text entry is dropped, order preserved.
	require.Len(t, texts, 3)
	assert.Equal(t, "猫の健康チェックを習慣に🐱 #猫のあれこれ", texts[0])
	assert.Equal(t, "【散歩のコツ】リードは短めに #獣医が教える犬のはなし", texts[1])
}

func TestParseTweetsLaterPart(t *testing.T) {
	export := `window.YTD.tweets.part3 = [{"tweet": {"full_text": "hello"}}]`
	texts, err := ParseTweets(strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, texts)
}

func TestParseTweetsRejectsOtherContent(t *testing.T) {
	_, err := ParseTweets(strings.NewReader(`{"not": "an export"}`))
	assert.Error(t, err)

	_, err = ParseTweets(strings.NewReader(`window.YTD.tweets.part0 = [{"tweet": }];`))
	assert.Error(t, err, "malformed JSON payload must fail")
}

func TestCategorize(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		text     string
		category string
		ok       bool
	}{
		{"猫の健康について #猫のあれこれ", "cat", true},
		{"散歩のコツ #獣医が教える犬のはなし", "dog", true},
		{"タグなしのつぶやき", "", false},
	}
	for _, tt := range tests {
		category, ok := c.Categorize(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.category, category, tt.text)
	}
}
