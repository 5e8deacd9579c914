// Package commands implements the bulkblame CLI commands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bulkblame/internal/config"
	"github.com/Sumatoshi-tech/bulkblame/internal/observability"
	"github.com/Sumatoshi-tech/bulkblame/pkg/blame"
	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
	"github.com/Sumatoshi-tech/bulkblame/pkg/textdiff"
)

// BlameCommand holds the flag state of the blame command.
type BlameCommand struct {
	configPath string
	verbose    bool
}

// NewBlameCommand creates and configures the blame command.
func NewBlameCommand() *cobra.Command {
	bc := &BlameCommand{}

	cobraCmd := &cobra.Command{
		Use:   "blame [repository]",
		Short: "Blame files of a repository in a single history walk",
		Long: `Blame computes, for every line of the selected files, the commit,
author and date that introduced it, following renames, copies and merges.

Without --rev, the working tree is blamed: uncommitted lines stay
unattributed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: bc.run,
	}

	cobraCmd.Flags().StringVar(&bc.configPath, "config", "", "Config file path (default: .bulkblame.yaml in CWD or $HOME)")
	cobraCmd.Flags().BoolVarP(&bc.verbose, "verbose", "v", false, "Enable debug logging")

	cobraCmd.Flags().String("rev", "", "Revision to blame at (default: working tree at HEAD)")
	cobraCmd.Flags().StringSlice("files", nil, "Restrict blame to these paths (comma-separated)")
	cobraCmd.Flags().Int("rename-score", 0, "Minimum similarity score for content renames [0,100]")
	cobraCmd.Flags().Int("break-score", 0, "Similarity below which modifications are broken for rename matching (<=0 off)")
	cobraCmd.Flags().Int("rename-limit", 0, "Max changed files for content rename detection (0 unlimited, <0 exact only)")
	cobraCmd.Flags().Int64("big-file-threshold", 0, "Skip similarity hashing for files larger than this many bytes")
	cobraCmd.Flags().Bool("skip-binary-renames", false, "Exclude binary files from content rename detection")
	cobraCmd.Flags().String("comparator", "", "Line comparator: default, ignore-all-space, ignore-trailing-space")
	cobraCmd.Flags().String("algorithm", "", "Diff algorithm: histogram, myers")
	cobraCmd.Flags().Bool("multithreading", true, "Run per-file blame jobs concurrently")
	cobraCmd.Flags().StringP("format", "f", "", "Output format: table, yaml")
	cobraCmd.Flags().Bool("metrics", false, "Print walk metrics after the run")

	return cobraCmd
}

func (bc *BlameCommand) run(cobraCmd *cobra.Command, args []string) error {
	cfg, err := bc.loadConfig(cobraCmd, args)
	if err != nil {
		return err
	}

	logger := newLogger(bc.verbose)

	repo, err := gitlib.OpenRepository(cfg.Repository)
	if err != nil {
		return err
	}
	defer repo.Free()

	cmd, metrics, err := buildCommand(repo, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cobraCmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()

	result, err := cmd.Execute(ctx)
	if err != nil {
		return err
	}

	renderErr := renderResult(cobraCmd.OutOrStdout(), result, cfg.Format)
	if renderErr != nil {
		return renderErr
	}

	printSummary(cobraCmd.OutOrStdout(), result, started)

	if cfg.Metrics && metrics != nil {
		reportMetrics(cobraCmd.OutOrStdout(), metrics, result)
	}

	return nil
}

// loadConfig merges the config file, environment and explicit flags,
// with flags winning.
func (bc *BlameCommand) loadConfig(cobraCmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(bc.configPath)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Repository = args[0]
	}

	flags := cobraCmd.Flags()

	if flags.Changed("rev") {
		cfg.Rev, _ = flags.GetString("rev")
	}

	if flags.Changed("files") {
		cfg.Files, _ = flags.GetStringSlice("files")
	}

	if flags.Changed("rename-score") {
		cfg.RenameScore, _ = flags.GetInt("rename-score")
	}

	if flags.Changed("break-score") {
		cfg.BreakScore, _ = flags.GetInt("break-score")
	}

	if flags.Changed("rename-limit") {
		cfg.RenameLimit, _ = flags.GetInt("rename-limit")
	}

	if flags.Changed("big-file-threshold") {
		cfg.BigFileThreshold, _ = flags.GetInt64("big-file-threshold")
	}

	if flags.Changed("skip-binary-renames") {
		cfg.SkipBinaryRenames, _ = flags.GetBool("skip-binary-renames")
	}

	if flags.Changed("comparator") {
		cfg.Comparator, _ = flags.GetString("comparator")
	}

	if flags.Changed("algorithm") {
		cfg.Algorithm, _ = flags.GetString("algorithm")
	}

	if flags.Changed("multithreading") {
		cfg.Multithreading, _ = flags.GetBool("multithreading")
	}

	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}

	if flags.Changed("metrics") {
		cfg.Metrics, _ = flags.GetBool("metrics")
	}

	return cfg, nil
}

// buildCommand translates the configuration into a blame command.
func buildCommand(repo *gitlib.Repository, cfg *config.Config, logger *slog.Logger) (*blame.Command, *observability.WalkMetrics, error) {
	comparator, err := textdiff.ParseComparator(cfg.Comparator)
	if err != nil {
		return nil, nil, err
	}

	algorithm, err := textdiff.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	cmd := blame.NewCommand(repo)
	cmd.RenameScore = cfg.RenameScore
	cmd.BreakScore = cfg.BreakScore
	cmd.RenameLimit = cfg.RenameLimit
	cmd.BigFileThreshold = cfg.BigFileThreshold
	cmd.SkipBinaryContentRenames = cfg.SkipBinaryRenames
	cmd.Comparator = comparator
	cmd.Algorithm = algorithm
	cmd.Multithreading = cfg.Multithreading
	cmd.Logger = logger

	if len(cfg.Files) > 0 {
		cmd.FilePaths = cfg.Files
	}

	if cfg.Rev != "" {
		rev, resolveErr := repo.ResolveRevision(cfg.Rev)
		if resolveErr != nil {
			return nil, nil, resolveErr
		}

		cmd.StartCommit = &rev
	}

	var metrics *observability.WalkMetrics

	if cfg.Metrics {
		metrics, err = observability.NewWalkMetrics()
		if err != nil {
			return nil, nil, err
		}

		commitsProcessed := metrics.CommitsProcessed
		cmd.Progress = func(iteration int, commitHash string) {
			commitsProcessed.Inc()
			logger.Debug("processing", "iteration", iteration, "commit", commitHash)
		}
	}

	return cmd, metrics, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printSummary(out io.Writer, result *blame.Result, started time.Time) {
	lines := 0
	for _, fileBlame := range result.Files {
		lines += fileBlame.LineCount()
	}

	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "\nBlamed %s across %s in %s\n",
		humanize.Comma(int64(lines))+" lines",
		humanize.Comma(int64(len(result.Files)))+" files",
		time.Since(started).Round(time.Millisecond))

	if result.RenameLimitExceeded {
		_, _ = color.New(color.FgYellow).Fprintln(out, "note: rename limit exceeded; some renames resolved by exact match only")
	}

	if result.SimilarityTableOverflow {
		_, _ = color.New(color.FgYellow).Fprintln(out, "note: similarity table overflow; some files excluded from rename detection")
	}
}

func reportMetrics(out io.Writer, metrics *observability.WalkMetrics, result *blame.Result) {
	attributed := 0

	for _, fileBlame := range result.Files {
		for _, hash := range fileBlame.CommitHashes {
			if hash != "" {
				attributed++
			}
		}
	}

	metrics.FilesBlamed.Set(float64(len(result.Files)))
	metrics.LinesAttributed.Set(float64(attributed))

	samples, err := metrics.Gather()
	if err != nil {
		fmt.Fprintf(out, "metrics unavailable: %v\n", err)

		return
	}

	for _, sample := range samples {
		fmt.Fprintf(out, "%s %v\n", sample.Name, sample.Value)
	}
}
