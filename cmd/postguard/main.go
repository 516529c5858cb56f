package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ymiyake/postguard/internal/archive"
	"github.com/ymiyake/postguard/internal/config"
	"github.com/ymiyake/postguard/internal/domain"
	"github.com/ymiyake/postguard/internal/similarity"
	"github.com/ymiyake/postguard/internal/sqlite"
)

var (
	dbPath    string
	vocabPath string
	threshold float64
	verbose   bool
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "postguard",
		Short: "Near-duplicate monitor for generated social posts",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DatabasePath, "post history database path")
	rootCmd.PersistentFlags().StringVar(&vocabPath, "vocab", cfg.VocabularyPath, "vocabulary YAML path (empty for built-in)")
	rootCmd.PersistentFlags().Float64Var(&threshold, "threshold", cfg.Threshold, "similarity threshold in (0, 1]")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(checkCmd(cfg))
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(purgeCmd(cfg))
	rootCmd.AddCommand(vocabCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openMonitor wires the store, scorer and monitor together. The returned
// close function releases the database.
func openMonitor() (*domain.Monitor, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create db dir: %w", err)
	}
	repo, err := sqlite.NewRepository(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open repository: %w", err)
	}

	vocab := similarity.DefaultVocabulary()
	if vocabPath != "" {
		vocab, err = similarity.LoadVocabulary(vocabPath)
		if err != nil {
			repo.Close()
			return nil, nil, err
		}
	}
	scorer, err := similarity.NewScorer(vocab)
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("build scorer: %w", err)
	}

	classifier := archive.DefaultClassifier()
	monitor, err := domain.NewMonitor(repo, scorer, newLogger(),
		domain.WithThreshold(threshold),
		domain.WithDefaultCategory(func(content string) string {
			category, _ := classifier.Categorize(content)
			return category
		}),
	)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	return monitor, repo.Close, nil
}

// readText returns the post text from the argument, or from stdin when the
// argument is "-".
func readText(arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <tweets.js>",
		Short: "Bulk-import a published-post export into the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open export: %w", err)
			}
			defer f.Close()

			texts, err := archive.ParseTweets(f)
			if err != nil {
				return err
			}

			classifier := archive.DefaultClassifier()
			var entries []domain.ArchiveEntry
			for _, text := range texts {
				category, ok := classifier.Categorize(text)
				if !ok {
					continue
				}
				entries = append(entries, domain.ArchiveEntry{Content: text, Category: category})
			}

			monitor, closeFn, err := openMonitor()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := monitor.ImportArchive(cmd.Context(), entries)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d posts, skipped %d already present\n", res.Inserted, res.Skipped)
			return nil
		},
	}
}

func checkCmd(cfg *config.Config) *cobra.Command {
	var (
		category string
		topic    string
		months   int
	)
	cmd := &cobra.Command{
		Use:   "check <text|->",
		Short: "Check a candidate post against the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args[0])
			if err != nil {
				return err
			}

			monitor, closeFn, err := openMonitor()
			if err != nil {
				return err
			}
			defer closeFn()

			isDup, matches, err := monitor.CheckDuplicate(cmd.Context(), text, domain.CheckOptions{
				Category:   category,
				Topic:      topic,
				MonthsBack: months,
			})
			if err != nil {
				return err
			}

			if !isDup {
				fmt.Println("ok: no duplicate found")
				return nil
			}
			fmt.Printf("duplicate: %d match(es)\n", len(matches))
			for _, m := range matches {
				fmt.Printf("  %.3f  %s  [%s/%s]  %s  %s\n",
					m.Similarity, m.Reason, m.Category, m.Topic,
					m.CreatedAt.Format("2006-01-02"), firstLine(m.Content))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "restrict similarity scan to this category")
	cmd.Flags().StringVar(&topic, "topic", "", "restrict similarity scan to this topic")
	cmd.Flags().IntVar(&months, "months", cfg.LookbackMonths, "lookback window in 30-day months")
	return cmd
}

func saveCmd() *cobra.Command {
	var (
		category string
		topic    string
		postType string
	)
	cmd := &cobra.Command{
		Use:   "save <text|->",
		Short: "Store an approved post (run check first; save does not)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args[0])
			if err != nil {
				return err
			}

			monitor, closeFn, err := openMonitor()
			if err != nil {
				return err
			}
			defer closeFn()

			post, err := monitor.SaveApprovedPost(cmd.Context(), text, domain.SaveOptions{
				Category: category,
				Topic:    topic,
				PostType: postType,
			})
			if err != nil {
				return err
			}
			fmt.Printf("saved post %d [%s/%s] %d chars\n", post.ID, post.Category, post.Topic, post.CharCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "post category (derived from hashtags when empty)")
	cmd.Flags().StringVar(&topic, "topic", "", "post topic (extracted when empty)")
	cmd.Flags().StringVar(&postType, "type", "", "free-form post type tag")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show post history statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor, closeFn, err := openMonitor()
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := monitor.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("total posts:      %d\n", stats.TotalPosts)
			categories := make([]string, 0, len(stats.PostsByCategory))
			for category := range stats.PostsByCategory {
				categories = append(categories, category)
			}
			sort.Strings(categories)
			for _, category := range categories {
				fmt.Printf("  %-14s  %d\n", category+":", stats.PostsByCategory[category])
			}
			fmt.Printf("detections:       %d\n", stats.TotalDetections)
			fmt.Printf("posts (30 days):  %d\n", stats.RecentPosts)
			return nil
		},
	}
}

func purgeCmd(cfg *config.Config) *cobra.Command {
	var olderThan int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete generated posts older than the retention cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor, closeFn, err := openMonitor()
			if err != nil {
				return err
			}
			defer closeFn()

			deleted, err := monitor.PurgeGenerated(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d generated posts older than %d days (archive kept)\n", deleted, olderThan)
			return nil
		},
	}
	cmd.Flags().IntVar(&olderThan, "older-than", cfg.RetentionDays, "age cutoff in days")
	return cmd
}

func vocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Print the effective matching vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vocab := similarity.DefaultVocabulary()
			if vocabPath != "" {
				var err error
				vocab, err = similarity.LoadVocabulary(vocabPath)
				if err != nil {
					return err
				}
			}
			categories := make([]string, 0, len(vocab.Keywords))
			for category := range vocab.Keywords {
				categories = append(categories, category)
			}
			sort.Strings(categories)
			for _, category := range categories {
				terms := vocab.Keywords[category]
				fmt.Printf("%s (%d terms)\n", category, len(terms))
				for _, t := range terms {
					fmt.Printf("  %s\n", t)
				}
			}
			fmt.Printf("topics: %d diseases, %d breeds\n", len(vocab.Topics.Diseases), len(vocab.Topics.Breeds))
			fmt.Printf("markers: %d bullets, %d attention words\n", len(vocab.Markers.Bullets), len(vocab.Markers.Attention))
			return nil
		},
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + "…"
		}
	}
	return s
}
