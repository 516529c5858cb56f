package domain

import (
	"context"
	"time"
)

// WindowQuery selects recent posts for similarity scanning.
type WindowQuery struct {
	// NotBefore excludes posts created at or before this instant.
	NotBefore time.Time

	// Category, when non-empty, restricts results to an exact category.
	Category string

	// Topic, when non-empty, restricts results to an exact topic.
	Topic string

	// Limit caps the number of returned posts. Results are newest first.
	Limit int
}

// PostRepository defines persistence operations for the post history and
// the detection log. Implementations wrap I/O failures with ErrStorage.
type PostRepository interface {
	// InsertPost persists a new post and returns its assigned ID.
	// A content-hash collision returns ErrDuplicateContent.
	InsertPost(ctx context.Context, post *Post) (int64, error)

	// FindByHash looks a post up by content hash. A miss returns
	// (nil, nil); it is not an error.
	FindByHash(ctx context.Context, hash string) (*Post, error)

	// QueryWindow returns posts matching the query, newest first.
	QueryWindow(ctx context.Context, q WindowQuery) ([]Post, error)

	// LogDetection appends a detection event to the audit log.
	LogDetection(ctx context.Context, event *DetectionEvent) error

	// Statistics summarizes the stored history.
	Statistics(ctx context.Context) (*Statistics, error)

	// PurgeGenerated removes generated posts older than the cutoff and
	// returns the number of rows deleted. Archive posts are never touched.
	PurgeGenerated(ctx context.Context, olderThanDays int) (int64, error)
}

// ContentScorer derives comparison features from raw post text and scores
// similarity between two posts.
type ContentScorer interface {
	// ContentHash returns a stable digest of the normalized text.
	ContentHash(text string) string

	// Normalize returns the canonical comparison form of text.
	Normalize(text string) string

	// Keywords returns the matched domain vocabulary terms.
	Keywords(text string) []string

	// MainPoints returns the extracted bullet and callout phrases.
	MainPoints(text string) []string

	// Topic returns the extracted subject label, or DefaultTopic.
	Topic(text string) string

	// Score returns a composite similarity in [0, 1]. Symmetric.
	Score(a, b string) float64
}
