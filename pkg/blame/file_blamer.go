package blame

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
	"github.com/Sumatoshi-tech/bulkblame/pkg/textdiff"
)

// FileBlamer splits the unattributed regions of a child commit's files
// between the child and its parents, one diff at a time.
type FileBlamer struct {
	treeComparator *FileTreeComparator
	algorithm      textdiff.Algorithm
	comparator     textdiff.Comparator
	reader         *BlobReader
	result         *Result

	// multithreading runs per-file blame jobs on a bounded worker pool;
	// otherwise jobs run in place, which keeps small walks deterministic
	// to debug.
	multithreading bool
	workers        int
}

// NewFileBlamer wires a blamer over its collaborators.
func NewFileBlamer(
	treeComparator *FileTreeComparator,
	algorithm textdiff.Algorithm,
	comparator textdiff.Comparator,
	reader *BlobReader,
	result *Result,
	multithreading bool,
) *FileBlamer {
	return &FileBlamer{
		treeComparator: treeComparator,
		algorithm:      algorithm,
		comparator:     comparator,
		reader:         reader,
		result:         result,
		multithreading: multithreading,
		workers:        runtime.NumCPU(),
	}
}

// initialize loads every candidate of the start node to learn its line
// count, allocates its single full-file region and the result arrays.
func (b *FileBlamer) initialize(node *graphNode) error {
	for _, fc := range node.allFiles {
		text, err := b.reader.loadText(fc)
		if err != nil {
			return fmt.Errorf("initialize %s: %w", fc.originalPath, err)
		}

		lineCount := text.LineCount()
		if lineCount > 0 {
			fc.regionList = &region{length: lineCount}
		}

		b.result.initialize(fc.originalPath, lineCount)
	}

	return nil
}

// saveBlameDataForFilesInCommit attributes every region still held by
// the node's candidates to the node's commit. The working-directory
// node attributes zero values: those lines are uncommitted.
func (b *FileBlamer) saveBlameDataForFilesInCommit(node *graphNode) {
	var (
		commitHash  string
		authorEmail string
		commitDate  time.Time
	)

	if node.commit != nil {
		commitHash = node.commit.Hash.String()
		authorEmail = node.commit.AuthorEmail
		commitDate = node.commit.CommitterWhen
	}

	for _, fc := range node.allFiles {
		if fc.regionList != nil {
			b.result.save(commitHash, commitDate, authorEmail, fc)
		}
	}
}

// blameParent expands a single-parent node: regions move to the parent
// wherever the parent already had the same lines.
func (b *FileBlamer) blameParent(ctx context.Context, parent gitlib.CommitInfo, child *graphNode) (*graphNode, error) {
	diffFiles, err := b.treeComparator.findMovedFiles(ctx, parent, child.commit, child.pathSet())
	if err != nil {
		return nil, err
	}

	parentNode := newCommitNode(parent, len(child.allFiles))

	blameErr := b.blameWithFileDiffs(ctx, parentNode, child, diffFiles)
	if blameErr != nil {
		return nil, blameErr
	}

	return parentNode, nil
}

// blameParents expands a merge node. Each parent is compared against a
// snapshot of the child's candidates; different regions of one file may
// legitimately move to different parents.
func (b *FileBlamer) blameParents(ctx context.Context, parents []gitlib.CommitInfo, child *graphNode) ([]*graphNode, error) {
	diffsByParent := make([][]DiffFile, 0, len(parents))
	parentNodes := make([]*graphNode, 0, len(parents))

	for _, parent := range parents {
		parentNodes = append(parentNodes, newCommitNode(parent, len(child.allFiles)))

		diffFiles, err := b.treeComparator.findMovedFiles(ctx, parent, child.commit, child.pathSet())
		if err != nil {
			return nil, err
		}

		diffsByParent = append(diffsByParent, diffFiles)
	}

	// Unmodified files (same path, absent from the diff) move to the
	// first parent that has them untouched.
	for i := range parents {
		diffNewPaths := make(map[string]struct{}, len(diffsByParent[i]))
		for _, diffFile := range diffsByParent[i] {
			diffNewPaths[diffFile.NewPath] = struct{}{}
		}

		for _, fc := range child.allFiles {
			if _, changed := diffNewPaths[fc.path]; !changed {
				moveFileToParent(parentNodes[i], fc, fc.path)
			}
		}
	}

	// Renamed or copied files with identical blobs short-circuit to the
	// parent under their old path.
	for i := range parents {
		for _, diffFile := range diffsByParent[i] {
			for _, fc := range child.filesAt(diffFile.NewPath) {
				if !fc.blob.IsZero() && fc.blob == diffFile.OldID {
					moveFileToParent(parentNodes[i], fc, diffFile.OldPath)
				}
			}
		}
	}

	// Whatever is left splits by content diff.
	for i := range parents {
		err := b.blameWithFileDiffs(ctx, parentNodes[i], child, diffsByParent[i])
		if err != nil {
			return nil, err
		}
	}

	return parentNodes, nil
}

// blameJob is one per-file diff between a child candidate and its
// parent-side path.
type blameJob struct {
	parentPath string
	parentBlob gitlib.Hash
	source     *fileCandidate
}

func (b *FileBlamer) blameWithFileDiffs(ctx context.Context, parent, child *graphNode, diffFiles []DiffFile) error {
	processedPaths := make(map[string]struct{}, len(diffFiles))

	var jobs []blameJob

	for _, diffFile := range diffFiles {
		processedPaths[diffFile.NewPath] = struct{}{}

		if !diffFile.HasOld() {
			// Added by the child: its regions stay and blame here.
			continue
		}

		for _, fc := range child.filesAt(diffFile.NewPath) {
			jobs = append(jobs, blameJob{parentPath: diffFile.OldPath, parentBlob: diffFile.OldID, source: fc})
		}
	}

	// Files untouched by this parent hand their regions over unchanged.
	for _, fc := range child.allFiles {
		if _, processed := processedPaths[fc.path]; !processed {
			moveFileToParent(parent, fc, fc.path)
		}
	}

	produced, err := b.runJobs(ctx, jobs)
	if err != nil {
		return err
	}

	for _, fc := range produced {
		if fc != nil {
			parent.addFile(fc)
		}
	}

	return nil
}

// runJobs executes the blame jobs, in place or on the worker pool.
func (b *FileBlamer) runJobs(ctx context.Context, jobs []blameJob) ([]*fileCandidate, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	if !b.multithreading || len(jobs) == 1 {
		out := make([]*fileCandidate, 0, len(jobs))

		for _, job := range jobs {
			fc, err := b.splitBlameWithParent(b.reader, job)
			if err != nil {
				return nil, err
			}

			out = append(out, fc)
		}

		return out, nil
	}

	return b.runJobsParallel(ctx, jobs)
}

func (b *FileBlamer) runJobsParallel(ctx context.Context, jobs []blameJob) ([]*fileCandidate, error) {
	workers := b.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan blameJob, len(jobs))

	type jobResult struct {
		fc  *fileCandidate
		err error
	}

	resultCh := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup

	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()

			// Object readers are not thread safe: every worker holds
			// its own forked reader for the lifetime of the batch.
			reader, forkErr := b.reader.Fork()
			if forkErr != nil {
				for range jobCh {
					resultCh <- jobResult{err: forkErr}
				}

				return
			}
			defer reader.Close()

			for job := range jobCh {
				if ctx.Err() != nil {
					resultCh <- jobResult{err: ctx.Err()}

					continue
				}

				fc, err := b.splitBlameWithParent(reader, job)
				resultCh <- jobResult{fc: fc, err: err}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}

	close(jobCh)
	wg.Wait()
	close(resultCh)

	out := make([]*fileCandidate, 0, len(jobs))

	var firstErr error

	for res := range resultCh {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}

		if res.fc != nil {
			out = append(out, res.fc)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return out, nil
}

// splitBlameWithParent diffs one candidate against its parent-side file
// and partitions the candidate's regions between the two. Returns nil
// when nothing moved to the parent.
func (b *FileBlamer) splitBlameWithParent(reader *BlobReader, job blameJob) (*fileCandidate, error) {
	source := job.source
	if source.regionList == nil {
		// All regions already moved to another parent.
		return nil, nil
	}

	parent := newFileCandidate(source.originalPath, job.parentPath, job.parentBlob)

	if !parent.blob.IsZero() && parent.blob == source.blob {
		moveUnmodifiedRegionsToParent(parent, source)

		return parent, nil
	}

	parentText, err := reader.loadText(parent)
	if err != nil {
		return nil, err
	}

	sourceText, err := reader.loadText(source)
	if err != nil {
		return nil, err
	}

	edits := b.algorithm.Diff(b.comparator, parentText, sourceText)
	if len(edits) == 0 {
		// A whitespace-ignoring comparator can find no edits between
		// non-identical blobs.
		moveUnmodifiedRegionsToParent(parent, source)

		return parent, nil
	}

	parent.takeBlame(edits, source)

	if parent.regionList == nil {
		return nil, nil
	}

	return parent, nil
}

// moveFileToParent hands an unmodified (possibly renamed or copied)
// file over to the parent under its parent-side path.
func moveFileToParent(parent *graphNode, childFile *fileCandidate, parentPath string) {
	// Regions can be nil when another parent already claimed the file.
	if childFile.regionList == nil {
		return
	}

	parentFile := newFileCandidate(childFile.originalPath, parentPath, childFile.blob)
	parentFile.regionList = childFile.clearRegionList()
	parent.addFile(parentFile)
}

func moveUnmodifiedRegionsToParent(parent, child *fileCandidate) {
	parent.regionList = child.clearRegionList()
}
