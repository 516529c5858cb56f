package domain_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymiyake/postguard/internal/domain"
	"github.com/ymiyake/postguard/internal/similarity"
	"github.com/ymiyake/postguard/internal/sqlite"
)

// newStack wires a Monitor over a real SQLite store and the real scorer.
func newStack(t *testing.T) *domain.Monitor {
	t.Helper()

	repo, err := sqlite.NewRepository(filepath.Join(t.TempDir(), "posts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	scorer, err := similarity.NewScorer(similarity.DefaultVocabulary())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor, err := domain.NewMonitor(repo, scorer, logger)
	require.NoError(t, err)
	return monitor
}

func TestMonitorEndToEnd(t *testing.T) {
	m := newStack(t)
	ctx := context.Background()

	stored := "獣医師が教える！【猫の腎臓病】早期発見が重要です。✅多飲多尿✅食欲不振✅体重減少 #猫のあれこれ"
	_, err := m.SaveApprovedPost(ctx, stored, domain.SaveOptions{
		Category: "cat",
		Topic:    "腎臓病",
		PostType: "health",
	})
	require.NoError(t, err)

	t.Run("verbatim resubmission is an exact match", func(t *testing.T) {
		isDup, matches, err := m.CheckDuplicate(ctx, stored, domain.CheckOptions{
			Category:   "cat",
			Topic:      "腎臓病",
			MonthsBack: 6,
		})
		require.NoError(t, err)
		assert.True(t, isDup)
		require.Len(t, matches, 1)
		assert.Equal(t, 1.0, matches[0].Similarity)
		assert.Equal(t, domain.ReasonExactMatch, matches[0].Reason)
	})

	t.Run("near-paraphrase is caught", func(t *testing.T) {
		paraphrase := "獣医師が教える！【猫の腎臓病】早期発見が大切です。✅食欲不振✅多飲多尿✅体重減少 #猫のあれこれ"
		isDup, matches, err := m.CheckDuplicate(ctx, paraphrase, domain.CheckOptions{
			Category:   "cat",
			Topic:      "腎臓病",
			MonthsBack: 6,
		})
		require.NoError(t, err)
		assert.True(t, isDup)
		require.NotEmpty(t, matches)
		assert.GreaterOrEqual(t, matches[0].Similarity, 0.65)
		assert.Equal(t, domain.ReasonSimilarContent, matches[0].Reason)
	})

	t.Run("unrelated post passes", func(t *testing.T) {
		unrelated := "犬の散歩はリードを短く持って安全に歩きましょう。交通量の多い道は避けるのが無難です。#獣医が教える犬のはなし"
		isDup, matches, err := m.CheckDuplicate(ctx, unrelated, domain.CheckOptions{
			MonthsBack: 6,
		})
		require.NoError(t, err)
		assert.False(t, isDup)
		assert.Empty(t, matches)
	})

	t.Run("detections show up in statistics", func(t *testing.T) {
		stats, err := m.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalPosts)
		assert.GreaterOrEqual(t, stats.TotalDetections, 2)
	})
}

func TestMonitorImportThenPurge(t *testing.T) {
	m := newStack(t)
	ctx := context.Background()

	_, err := m.ImportArchive(ctx, []domain.ArchiveEntry{
		{Content: "アーカイブ投稿その一 #猫のあれこれ", Category: "cat"},
		{Content: "アーカイブ投稿その二 #猫のあれこれ", Category: "cat"},
		{Content: "アーカイブ投稿その三 #獣医が教える犬のはなし", Category: "dog"},
	})
	require.NoError(t, err)

	for _, content := range []string{"新規投稿その一", "新規投稿その二"} {
		_, err := m.SaveApprovedPost(ctx, content, domain.SaveOptions{Category: "cat"})
		require.NoError(t, err)
	}

	stats, err := m.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalPosts)

	// Purging everything generated leaves only the archive.
	deleted, err := m.PurgeGenerated(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	stats, err = m.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 2, stats.PostsByCategory["cat"], "archive cat posts remain")
	assert.Equal(t, 1, stats.PostsByCategory["dog"])
}

func TestMonitorSavedTopicExtraction(t *testing.T) {
	m := newStack(t)
	ctx := context.Background()

	post, err := m.SaveApprovedPost(ctx, "獣医師が教える！【猫の糖尿病】インスリン治療の話", domain.SaveOptions{Category: "cat"})
	require.NoError(t, err)
	assert.Equal(t, "猫の糖尿病", post.Topic, "topic falls back to the bracket label")

	post, err = m.SaveApprovedPost(ctx, "ただのあいさつ投稿です", domain.SaveOptions{Category: "cat"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTopic, post.Topic)
}
