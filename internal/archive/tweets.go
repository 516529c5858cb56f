// Package archive decodes a previously published post corpus so it can be
// bulk-imported into the history. The supported container is the
// Twitter/X data export: a JavaScript file assigning a JSON array of
// tweet objects to window.YTD.tweets.partN.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// assignmentRE strips the JavaScript assignment wrapper around the JSON
// payload: "window.YTD.tweets.part0 = [ ... ];"
var assignmentRE = regexp.MustCompile(`(?s)window\.YTD\.tweets\.part\d+\s*=\s*(\[.*\]);?`)

type tweetEnvelope struct {
	Tweet struct {
		FullText string `json:"full_text"`
	} `json:"tweet"`
}

// ParseTweets extracts the full text of every tweet in an export file.
// Entries without text are dropped; order is preserved.
func ParseTweets(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	m := assignmentRE.FindSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("export is not a window.YTD.tweets assignment")
	}

	var envelopes []tweetEnvelope
	if err := json.Unmarshal(m[1], &envelopes); err != nil {
		return nil, fmt.Errorf("decode tweets: %w", err)
	}

	texts := make([]string, 0, len(envelopes))
	for _, e := range envelopes {
		if e.Tweet.FullText != "" {
			texts = append(texts, e.Tweet.FullText)
		}
	}
	return texts, nil
}

// Classifier maps a hashtag to the category of posts carrying it. Posts
// carrying none of the tags are outside the tracked content series and are
// skipped by Categorize.
type Classifier map[string]string

// DefaultClassifier covers the two content series the original corpus was
// published under.
func DefaultClassifier() Classifier {
	return Classifier{
		"#猫のあれこれ":       "cat",
		"#獣医が教える犬のはなし": "dog",
	}
}

// Categorize returns the category for the first classifier hashtag found
// in the text, or ok=false when the post belongs to no tracked series.
// Tags are tried in sorted order so a post carrying several always
// classifies the same way.
func (c Classifier) Categorize(text string) (category string, ok bool) {
	tags := make([]string, 0, len(c))
	for tag := range c {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if strings.Contains(text, tag) {
			return c[tag], true
		}
	}
	return "", false
}
