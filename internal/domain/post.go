package domain

import "time"

// Source tags where a stored post came from.
type Source string

const (
	// SourceArchive marks posts imported from a pre-existing published
	// corpus. Archive posts are never removed by retention purges.
	SourceArchive Source = "archive"

	// SourceGenerated marks posts approved and saved by this system's own
	// workflow. Generated posts are subject to retention purging.
	SourceGenerated Source = "generated"
)

// DetectionReason explains why a candidate was flagged.
type DetectionReason string

const (
	// ReasonExactMatch means the candidate's normalized content was
	// identical to a stored post.
	ReasonExactMatch DetectionReason = "exact_match"

	// ReasonSimilarContent means the composite similarity score reached
	// the configured threshold.
	ReasonSimilarContent DetectionReason = "similar_content"
)

// DefaultTopic is the sentinel topic assigned when no topic could be
// extracted from or supplied for a post.
const DefaultTopic = "general"

// Post represents a stored post in the history. Records are immutable once
// inserted; only the retention purge ever removes them.
type Post struct {
	// ID is assigned by the store and increases monotonically.
	ID int64

	// Content is the original post text, unmodified.
	Content string

	// ContentHash is the digest of the normalized content, used for
	// exact-duplicate lookup.
	ContentHash string

	// NormalizedContent is the canonical comparison form of Content.
	NormalizedContent string

	// PostType is a free-form tag describing the content's role
	// (e.g. "question", "health", "case").
	PostType string

	// Category is the coarse content track (e.g. "cat", "dog").
	Category string

	// Topic is the specific subject label, extracted or supplied.
	// Defaults to DefaultTopic when none is found.
	Topic string

	// Keywords are the matched domain vocabulary terms.
	Keywords []string

	// MainPoints are the extracted bullet and callout phrases.
	MainPoints []string

	// CharCount is the length of Content in runes.
	CharCount int

	// CreatedAt is set at insertion and never changes.
	CreatedAt time.Time

	// Source records where the post came from.
	Source Source
}

// DetectionEvent is an audit record written whenever a candidate collides
// with a stored post. The post reference is weak: if the matched post is
// later removed by a retention purge the event remains as history.
type DetectionEvent struct {
	ID int64

	// AttemptedContent is the candidate text that triggered detection.
	AttemptedContent string

	// MatchedPostID references the stored post the candidate collided with.
	MatchedPostID int64

	// Similarity is the score that triggered the match (1.0 for exact).
	Similarity float64

	// Reason is why the candidate was flagged.
	Reason DetectionReason

	// DetectedAt is when the detection happened.
	DetectedAt time.Time
}

// Match is one piece of evidence returned by a duplicate check. It carries
// enough detail for a caller to log or display the collision.
type Match struct {
	// PostID is the ID of the stored post that matched.
	PostID int64

	// Similarity is the composite score against the candidate.
	Similarity float64

	// Reason distinguishes exact matches from near-duplicates.
	Reason DetectionReason

	// Content is the matched post's original text.
	Content string

	// Topic and Category are the matched post's classification.
	Topic    string
	Category string

	// CreatedAt is when the matched post was stored.
	CreatedAt time.Time

	// Source is the matched post's provenance.
	Source Source
}

// Statistics summarizes the state of the post history.
type Statistics struct {
	// TotalPosts is the number of stored posts across all sources.
	TotalPosts int

	// PostsByCategory counts stored posts per category.
	PostsByCategory map[string]int

	// TotalDetections is the number of detection events ever logged.
	TotalDetections int

	// RecentPosts is the number of posts stored in the last 30 days.
	RecentPosts int
}
