// Package sqlite persists the post history and detection log in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ymiyake/postguard/internal/domain"
	_ "modernc.org/sqlite" // pure-Go driver, no CGO
)

// defaultWindowLimit bounds QueryWindow when the caller passes no limit.
const defaultWindowLimit = 200

// Repository implements domain.PostRepository on SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if necessary) the database at path,
// enables WAL mode, and applies the schema. The caller should Close the
// repository when done.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return r, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS post_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		normalized_content TEXT NOT NULL,
		post_type TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL DEFAULT 'general',
		keywords TEXT NOT NULL DEFAULT '[]',
		main_points TEXT NOT NULL DEFAULT '[]',
		char_count INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		source TEXT NOT NULL DEFAULT 'generated'
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_post_history_hash ON post_history(content_hash);
	CREATE INDEX IF NOT EXISTS idx_post_history_window ON post_history(category, topic, created_at);
	CREATE INDEX IF NOT EXISTS idx_post_history_created ON post_history(created_at);

	CREATE TABLE IF NOT EXISTS duplicate_detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempted_content TEXT NOT NULL,
		matched_post_id INTEGER,
		similarity_score REAL NOT NULL,
		detection_reason TEXT NOT NULL,
		detected_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_detections_detected ON duplicate_detections(detected_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

// InsertPost persists a new post. The UNIQUE index on content_hash makes
// inserting previously seen content a no-op reported as
// domain.ErrDuplicateContent, which both keeps bulk imports idempotent per
// item and closes the check-then-act race between concurrent candidates.
func (r *Repository) InsertPost(ctx context.Context, post *domain.Post) (int64, error) {
	keywords, err := json.Marshal(emptyAsList(post.Keywords))
	if err != nil {
		return 0, storageErr("encode keywords", err)
	}
	points, err := json.Marshal(emptyAsList(post.MainPoints))
	if err != nil {
		return 0, storageErr("encode main points", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO post_history
			(content, content_hash, normalized_content, post_type, category,
			 topic, keywords, main_points, char_count, created_at, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING`,
		post.Content,
		post.ContentHash,
		post.NormalizedContent,
		post.PostType,
		post.Category,
		post.Topic,
		string(keywords),
		string(points),
		post.CharCount,
		post.CreatedAt,
		string(post.Source),
	)
	if err != nil {
		return 0, storageErr("insert post", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("insert post rows", err)
	}
	if rows == 0 {
		return 0, domain.ErrDuplicateContent
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert post id", err)
	}
	return id, nil
}

// FindByHash looks up a post by content hash. A miss returns (nil, nil).
func (r *Repository) FindByHash(ctx context.Context, hash string) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, content, content_hash, normalized_content, post_type,
		       category, topic, keywords, main_points, char_count,
		       created_at, source
		FROM post_history
		WHERE content_hash = ?`,
		hash,
	)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find by hash", err)
	}
	return post, nil
}

// QueryWindow returns posts newer than q.NotBefore, optionally filtered by
// exact category and topic, newest first, capped at q.Limit.
func (r *Repository) QueryWindow(ctx context.Context, q domain.WindowQuery) ([]domain.Post, error) {
	where := []string{"created_at > ?"}
	args := []any{q.NotBefore}

	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, q.Topic)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultWindowLimit
	}
	args = append(args, limit)

	query := `
		SELECT id, content, content_hash, normalized_content, post_type,
		       category, topic, keywords, main_points, char_count,
		       created_at, source
		FROM post_history
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query window", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, storageErr("scan post", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate posts", err)
	}
	return posts, nil
}

// LogDetection appends a detection event. The matched post reference is
// weak: events survive retention purges of the post they point to.
func (r *Repository) LogDetection(ctx context.Context, event *domain.DetectionEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO duplicate_detections
			(attempted_content, matched_post_id, similarity_score,
			 detection_reason, detected_at)
		VALUES (?, ?, ?, ?, ?)`,
		event.AttemptedContent,
		event.MatchedPostID,
		event.Similarity,
		string(event.Reason),
		event.DetectedAt,
	)
	if err != nil {
		return storageErr("log detection", err)
	}
	return nil
}

// Statistics summarizes the stored history.
func (r *Repository) Statistics(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{PostsByCategory: make(map[string]int)}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_history`,
	).Scan(&stats.TotalPosts); err != nil {
		return nil, storageErr("count posts", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM post_history GROUP BY category`,
	)
	if err != nil {
		return nil, storageErr("count by category", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, storageErr("scan category count", err)
		}
		stats.PostsByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate category counts", err)
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duplicate_detections`,
	).Scan(&stats.TotalDetections); err != nil {
		return nil, storageErr("count detections", err)
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_history WHERE created_at > ?`,
		time.Now().UTC().Add(-30*24*time.Hour),
	).Scan(&stats.RecentPosts); err != nil {
		return nil, storageErr("count recent posts", err)
	}

	return stats, nil
}

// PurgeGenerated deletes generated posts older than the cutoff. Archive
// posts are never auto-deleted.
func (r *Repository) PurgeGenerated(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(olderThanDays) * 24 * time.Hour)
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM post_history
		WHERE source = ? AND created_at < ?`,
		string(domain.SourceGenerated), cutoff,
	)
	if err != nil {
		return 0, storageErr("purge generated posts", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("purge rows", err)
	}
	return deleted, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*domain.Post, error) {
	var (
		p            domain.Post
		keywordsJSON string
		pointsJSON   string
		source       string
	)
	err := s.Scan(
		&p.ID,
		&p.Content,
		&p.ContentHash,
		&p.NormalizedContent,
		&p.PostType,
		&p.Category,
		&p.Topic,
		&keywordsJSON,
		&pointsJSON,
		&p.CharCount,
		&p.CreatedAt,
		&source,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &p.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(pointsJSON), &p.MainPoints); err != nil {
		return nil, fmt.Errorf("decode main points: %w", err)
	}
	p.Source = domain.Source(source)
	return &p, nil
}

// emptyAsList keeps nil slices encoding as [] rather than null.
func emptyAsList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
