package blame

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
	"github.com/Sumatoshi-tech/bulkblame/pkg/rename"
	"github.com/Sumatoshi-tech/bulkblame/pkg/textdiff"
)

// Command blames many files of a repository in one commit-graph walk.
// Construct it with NewCommand, adjust the exported fields, then call
// Execute.
type Command struct {
	repo *gitlib.Repository

	// StartCommit is the revision to blame at. Nil blames the working
	// tree anchored at HEAD (or the HEAD tree for a bare repository).
	StartCommit *gitlib.Hash
	// FilePaths restricts the blame to the given repository-relative
	// paths. Nil blames every file of the start revision; an empty,
	// non-nil slice blames nothing.
	FilePaths []string
	// RenameScore is the minimum content similarity, in [0, 100], for a
	// rename pairing.
	RenameScore int
	// BreakScore splits weak in-place modifications for rename
	// re-matching; values <= 0 disable breaking.
	BreakScore int
	// RenameLimit bounds inexact rename detection: 0 is unlimited,
	// negative restricts detection to exact blob matches.
	RenameLimit int
	// BigFileThreshold exempts files above this many bytes from content
	// similarity hashing.
	BigFileThreshold int64
	// SkipBinaryContentRenames excludes binary blobs from content
	// rename detection.
	SkipBinaryContentRenames bool
	// Comparator decides line equality for the content diffs.
	Comparator textdiff.Comparator
	// Algorithm is the diff algorithm; nil uses histogram.
	Algorithm textdiff.Algorithm
	// Multithreading runs per-file blame jobs concurrently.
	Multithreading bool
	// Progress, when set, observes every processed frontier node.
	Progress ProgressFunc
	// ContentOverrides substitutes in-memory content for chosen
	// working-tree paths.
	ContentOverrides map[string][]byte
	// Logger receives debug trace; nil uses slog.Default.
	Logger *slog.Logger
}

// NewCommand creates a blame command with default thresholds.
func NewCommand(repo *gitlib.Repository) *Command {
	return &Command{
		repo:             repo,
		RenameScore:      rename.DefaultRenameScore,
		BreakScore:       rename.DefaultBreakScore,
		RenameLimit:      rename.DefaultRenameLimit,
		BigFileThreshold: rename.DefaultBigFileThreshold,
	}
}

// Execute runs the walk and returns the collected blame.
func (c *Command) Execute(ctx context.Context) (*Result, error) {
	result := NewResult()

	if c.FilePaths != nil && len(c.FilePaths) == 0 {
		return result, nil
	}

	var pathsToBlame map[string]struct{}

	if c.FilePaths != nil {
		pathsToBlame = make(map[string]struct{}, len(c.FilePaths))
		for _, path := range c.FilePaths {
			pathsToBlame[path] = struct{}{}
		}
	}

	algorithm := c.Algorithm
	if algorithm == nil {
		algorithm = textdiff.NewHistogram()
	}

	reader := newBlobReader(c.repo, c.ContentOverrides)

	detector := rename.NewDetector(contentSource{reader: reader})
	detector.RenameScore = c.RenameScore
	detector.BreakScore = c.BreakScore
	detector.RenameLimit = c.RenameLimit
	detector.BigFileThreshold = c.BigFileThreshold
	detector.SkipBinaryFiles = c.SkipBinaryContentRenames

	filteredDetector := NewFilteredRenameDetector(detector)
	treeComparator := NewFileTreeComparator(c.repo, filteredDetector)
	blamer := NewFileBlamer(treeComparator, algorithm, c.Comparator, reader, result, c.Multithreading)
	factory := newGraphNodeFactory(c.repo, pathsToBlame)
	generator := NewGenerator(c.repo, blamer, factory, c.Progress, c.Logger)

	runErr := generator.Run(ctx, c.StartCommit)

	result.RenameLimitExceeded = filteredDetector.OverRenameLimit()
	result.SimilarityTableOverflow = filteredDetector.TableOverflow()

	if runErr != nil {
		return result, fmt.Errorf("blame repository files: %w", runErr)
	}

	return result, nil
}
