package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultThreshold is the similarity score at or above which a
	// candidate is reported as a near-duplicate.
	DefaultThreshold = 0.65

	// windowLimit caps how many recent posts a single check will score,
	// bounding worst-case cost per call.
	windowLimit = 200

	// daysPerMonth is the fixed lookback month length. The window is a
	// rolling N*30-day span, not calendar months.
	daysPerMonth = 30
)

// CheckOptions narrows a duplicate check.
type CheckOptions struct {
	// Category, when non-empty, restricts the similarity scan to posts in
	// the same category. The exact-hash check always crosses categories.
	Category string

	// Topic, when non-empty, restricts the similarity scan to posts on
	// the same topic.
	Topic string

	// MonthsBack is the lookback window in 30-day months. Must be > 0.
	MonthsBack int
}

// SaveOptions classifies an approved post being saved.
type SaveOptions struct {
	// Category of the post. When empty, the monitor's classifier default
	// applies.
	Category string

	// Topic of the post. When empty it is extracted from the content.
	Topic string

	// PostType is a free-form role tag.
	PostType string
}

// ArchiveEntry is one post from a bulk-imported corpus.
type ArchiveEntry struct {
	Content  string
	Category string
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	// Inserted is the number of new archive posts stored.
	Inserted int

	// Skipped is the number of entries whose content hash was already
	// present, including rows from a previous partial import.
	Skipped int
}

// Monitor is the duplicate-detection orchestrator. It runs the exact-match
// and similarity checks against the post history, records detection events,
// and owns the save, import, statistics and retention operations.
//
// A Monitor is stateless across calls except for what the repository
// durably records. It assumes a single logical writer; concurrent use of
// the same store is guarded at the storage layer by the content-hash
// uniqueness constraint.
type Monitor struct {
	repo      PostRepository
	scorer    ContentScorer
	threshold float64

	// defaultCategory is applied by SaveApprovedPost when the caller
	// supplies none.
	defaultCategory func(content string) string

	logger *slog.Logger
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

// WithThreshold sets the similarity threshold. The value is validated by
// NewMonitor.
func WithThreshold(t float64) MonitorOption {
	return func(m *Monitor) { m.threshold = t }
}

// WithDefaultCategory sets the fallback used by SaveApprovedPost when the
// caller supplies no category.
func WithDefaultCategory(fn func(content string) string) MonitorOption {
	return func(m *Monitor) { m.defaultCategory = fn }
}

// NewMonitor creates a Monitor over the given repository and scorer.
func NewMonitor(repo PostRepository, scorer ContentScorer, logger *slog.Logger, opts ...MonitorOption) (*Monitor, error) {
	m := &Monitor{
		repo:      repo,
		scorer:    scorer,
		threshold: DefaultThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.threshold <= 0 || m.threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside (0, 1]", ErrInvalidArgument, m.threshold)
	}
	return m, nil
}

// Threshold returns the current similarity threshold.
func (m *Monitor) Threshold() float64 {
	return m.threshold
}

// SetThreshold replaces the similarity threshold. Values outside (0, 1]
// are rejected.
func (m *Monitor) SetThreshold(t float64) error {
	if t <= 0 || t > 1 {
		return fmt.Errorf("%w: threshold %v outside (0, 1]", ErrInvalidArgument, t)
	}
	m.threshold = t
	return nil
}

// CheckDuplicate decides whether candidate is too similar to any stored
// post. It returns the verdict plus the matching evidence, sorted by
// descending similarity. Finding a duplicate is a normal result, not an
// error; errors are reserved for bad arguments and storage failures.
//
// The exact-hash check runs first and short-circuits: an exact match never
// invokes the similarity scorer and crosses category boundaries. The
// similarity scan only covers posts newer than now minus
// MonthsBack*30 days, filtered by category and topic when given.
func (m *Monitor) CheckDuplicate(ctx context.Context, candidate string, opts CheckOptions) (bool, []Match, error) {
	if strings.TrimSpace(candidate) == "" {
		return false, nil, fmt.Errorf("%w: empty candidate text", ErrInvalidArgument)
	}
	if opts.MonthsBack <= 0 {
		return false, nil, fmt.Errorf("%w: months back must be positive, got %d", ErrInvalidArgument, opts.MonthsBack)
	}

	hash := m.scorer.ContentHash(candidate)
	exact, err := m.repo.FindByHash(ctx, hash)
	if err != nil {
		return false, nil, fmt.Errorf("find by hash: %w", err)
	}
	if exact != nil {
		event := &DetectionEvent{
			AttemptedContent: candidate,
			MatchedPostID:    exact.ID,
			Similarity:       1.0,
			Reason:           ReasonExactMatch,
			DetectedAt:       time.Now().UTC(),
		}
		if err := m.repo.LogDetection(ctx, event); err != nil {
			return false, nil, fmt.Errorf("log exact match: %w", err)
		}
		m.logger.Debug("exact duplicate detected", "post_id", exact.ID, "topic", exact.Topic)
		return true, []Match{matchFromPost(exact, 1.0, ReasonExactMatch)}, nil
	}

	cutoff := time.Now().UTC().Add(-time.Duration(opts.MonthsBack) * daysPerMonth * 24 * time.Hour)
	posts, err := m.repo.QueryWindow(ctx, WindowQuery{
		NotBefore: cutoff,
		Category:  opts.Category,
		Topic:     opts.Topic,
		Limit:     windowLimit,
	})
	if err != nil {
		return false, nil, fmt.Errorf("query window: %w", err)
	}

	var matches []Match
	for i := range posts {
		p := &posts[i]
		score := m.scorer.Score(candidate, p.Content)
		if score < m.threshold {
			continue
		}
		event := &DetectionEvent{
			AttemptedContent: candidate,
			MatchedPostID:    p.ID,
			Similarity:       score,
			Reason:           ReasonSimilarContent,
			DetectedAt:       time.Now().UTC(),
		}
		if err := m.repo.LogDetection(ctx, event); err != nil {
			return false, nil, fmt.Errorf("log similar content: %w", err)
		}
		matches = append(matches, matchFromPost(p, score, ReasonSimilarContent))
	}

	// Stable keeps scan order (newest first) for equal scores, so repeat
	// runs over an unchanged store return the same ordering.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > 0 {
		m.logger.Debug("similar content detected",
			"matches", len(matches),
			"top_score", matches[0].Similarity,
			"scanned", len(posts))
	}
	return len(matches) > 0, matches, nil
}

// SaveApprovedPost stores a candidate that cleared the duplicate check.
// It derives the content hash, normalized form, keywords, main points and
// character count, filling topic and category defaults when omitted.
//
// It never performs a duplicate check itself; checking and committing are
// deliberately separate steps owned by the caller.
func (m *Monitor) SaveApprovedPost(ctx context.Context, content string, opts SaveOptions) (*Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty post content", ErrInvalidArgument)
	}

	topic := opts.Topic
	if topic == "" {
		topic = m.scorer.Topic(content)
	}
	category := opts.Category
	if category == "" && m.defaultCategory != nil {
		category = m.defaultCategory(content)
	}

	post := m.buildPost(content, category, topic, opts.PostType, SourceGenerated)
	id, err := m.repo.InsertPost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("save approved post: %w", err)
	}
	post.ID = id

	m.logger.Info("approved post saved",
		"post_id", id,
		"category", post.Category,
		"topic", post.Topic,
		"chars", post.CharCount)
	return post, nil
}

// ImportArchive bulk-seeds the history with previously published posts.
// Each entry is inserted independently; entries whose content hash is
// already stored are skipped, so re-running an interrupted import picks up
// where it left off.
func (m *Monitor) ImportArchive(ctx context.Context, entries []ArchiveEntry) (ImportResult, error) {
	var res ImportResult
	for _, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			continue
		}
		post := m.buildPost(e.Content, e.Category, m.scorer.Topic(e.Content), "", SourceArchive)
		switch _, err := m.repo.InsertPost(ctx, post); {
		case err == nil:
			res.Inserted++
		case isDuplicate(err):
			res.Skipped++
		default:
			return res, fmt.Errorf("import archive post: %w", err)
		}
	}
	m.logger.Info("archive import finished", "inserted", res.Inserted, "skipped", res.Skipped)
	return res, nil
}

// Statistics reports a summary of the stored history.
func (m *Monitor) Statistics(ctx context.Context) (*Statistics, error) {
	stats, err := m.repo.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}

// PurgeGenerated removes generated posts older than the given number of
// days. Archive posts are never purged.
func (m *Monitor) PurgeGenerated(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("%w: retention days must not be negative, got %d", ErrInvalidArgument, olderThanDays)
	}
	deleted, err := m.repo.PurgeGenerated(ctx, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("purge generated posts: %w", err)
	}
	if deleted > 0 {
		m.logger.Info("retention purge complete", "deleted", deleted, "older_than_days", olderThanDays)
	}
	return deleted, nil
}

func (m *Monitor) buildPost(content, category, topic, postType string, source Source) *Post {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Post{
		Content:           content,
		ContentHash:       m.scorer.ContentHash(content),
		NormalizedContent: m.scorer.Normalize(content),
		PostType:          postType,
		Category:          category,
		Topic:             topic,
		Keywords:          m.scorer.Keywords(content),
		MainPoints:        m.scorer.MainPoints(content),
		CharCount:         utf8.RuneCountInString(content),
		CreatedAt:         time.Now().UTC(),
		Source:            source,
	}
}

func matchFromPost(p *Post, score float64, reason DetectionReason) Match {
	return Match{
		PostID:     p.ID,
		Similarity: score,
		Reason:     reason,
		Content:    p.Content,
		Topic:      p.Topic,
		Category:   p.Category,
		CreatedAt:  p.CreatedAt,
		Source:     p.Source,
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateContent)
}
