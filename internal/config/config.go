// Package config loads bulkblame settings from file, environment and defaults.
package config

import (
	"github.com/Sumatoshi-tech/bulkblame/pkg/rename"
)

// Config holds every tunable of a blame run.
type Config struct {
	// Repository is the path of the repository to blame.
	Repository string `mapstructure:"repository"`
	// Rev is the start revision; empty blames the working tree at HEAD.
	Rev string `mapstructure:"rev"`
	// Files restricts the blame to these repository-relative paths.
	Files []string `mapstructure:"files"`

	// RenameScore is the minimum similarity for content renames [0, 100].
	RenameScore int `mapstructure:"rename_score"`
	// BreakScore splits weak modifications; <= 0 disables breaking.
	BreakScore int `mapstructure:"break_score"`
	// RenameLimit bounds content rename detection; 0 unlimited, < 0 exact only.
	RenameLimit int `mapstructure:"rename_limit"`
	// BigFileThreshold exempts larger files from similarity hashing.
	BigFileThreshold int64 `mapstructure:"big_file_threshold"`
	// SkipBinaryRenames excludes binary files from content renames.
	SkipBinaryRenames bool `mapstructure:"skip_binary_renames"`

	// Comparator names the line comparator (default, ignore-all-space,
	// ignore-trailing-space).
	Comparator string `mapstructure:"comparator"`
	// Algorithm names the diff algorithm (histogram, myers).
	Algorithm string `mapstructure:"algorithm"`
	// Multithreading runs per-file blame jobs concurrently.
	Multithreading bool `mapstructure:"multithreading"`

	// Format selects the CLI output rendering (table, yaml).
	Format string `mapstructure:"format"`
	// Metrics enables prometheus walk metrics reporting.
	Metrics bool `mapstructure:"metrics"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Repository:       ".",
		RenameScore:      rename.DefaultRenameScore,
		BreakScore:       rename.DefaultBreakScore,
		RenameLimit:      rename.DefaultRenameLimit,
		BigFileThreshold: rename.DefaultBigFileThreshold,
		Comparator:       "default",
		Algorithm:        "histogram",
		Multithreading:   true,
		Format:           "table",
	}
}
