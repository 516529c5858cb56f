// Package config holds the settings of the postguard admin tool. Only the
// command-line layer reads it; the library packages take every parameter
// explicitly and never touch the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all configuration for the admin tool.
type Config struct {
	// DatabasePath is the SQLite file holding the post history.
	DatabasePath string

	// Threshold is the similarity score at or above which a candidate is
	// reported as a near-duplicate. Must be in (0, 1].
	Threshold float64

	// VocabularyPath optionally points at a vocabulary YAML file. Empty
	// means the built-in vocabulary.
	VocabularyPath string

	// RetentionDays is the default age cutoff for the purge command.
	RetentionDays int

	// LookbackMonths is the default duplicate-check window in 30-day
	// months.
	LookbackMonths int
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Threshold:      0.65,
		RetentionDays:  180,
		LookbackMonths: 6,
	}

	cfg.DatabasePath = os.Getenv("POSTGUARD_DB")
	if cfg.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DatabasePath = filepath.Join(home, ".postguard", "posts.db")
	}

	if t := os.Getenv("POSTGUARD_THRESHOLD"); t != "" {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid POSTGUARD_THRESHOLD: %w", err)
		}
		if v <= 0 || v > 1 {
			return nil, fmt.Errorf("POSTGUARD_THRESHOLD %v outside (0, 1]", v)
		}
		cfg.Threshold = v
	}

	cfg.VocabularyPath = os.Getenv("POSTGUARD_VOCAB")

	if d := os.Getenv("POSTGUARD_RETENTION_DAYS"); d != "" {
		v, err := strconv.Atoi(d)
		if err != nil {
			return nil, fmt.Errorf("invalid POSTGUARD_RETENTION_DAYS: %w", err)
		}
		if v < 0 {
			return nil, fmt.Errorf("POSTGUARD_RETENTION_DAYS must not be negative")
		}
		cfg.RetentionDays = v
	}

	return cfg, nil
}
