package blame

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
	"github.com/Sumatoshi-tech/bulkblame/pkg/rename"
)

// pathFilterThreshold bounds the number of target paths for which the
// pathspec-filtered fast diff is attempted. Larger sets diff the whole
// tree at once instead.
const pathFilterThreshold = 100

// DiffFile maps a file path of the child commit to its path in a parent
// commit. OldPath is empty when the file did not exist in the parent.
type DiffFile struct {
	NewPath string
	OldPath string
	OldID   gitlib.Hash
}

func newDiffFile(newPath, oldPath string, oldID gitlib.Hash) DiffFile {
	if oldID.IsZero() {
		oldPath = ""
	}

	return DiffFile{NewPath: newPath, OldPath: oldPath, OldID: oldID}
}

// HasOld reports whether the file existed in the parent commit.
func (d DiffFile) HasOld() bool {
	return d.OldPath != ""
}

// FileTreeComparator finds, for a set of child paths, the matching
// paths in a parent commit. A pathspec-filtered diff answers the common
// case; when any target turns out to be an add, the full tree diff is
// computed so the rename detector can search for its origin.
type FileTreeComparator struct {
	repo           *gitlib.Repository
	renameDetector *FilteredRenameDetector
}

// NewFileTreeComparator creates a comparator over the repository.
func NewFileTreeComparator(repo *gitlib.Repository, renameDetector *FilteredRenameDetector) *FileTreeComparator {
	return &FileTreeComparator{repo: repo, renameDetector: renameDetector}
}

// findMovedFiles maps the target paths of the child onto the parent.
// A nil child stands for the working directory.
func (c *FileTreeComparator) findMovedFiles(
	ctx context.Context,
	parent gitlib.CommitInfo,
	child *gitlib.CommitInfo,
	targetPaths map[string]struct{},
) ([]DiffFile, error) {
	if child == nil {
		return c.computeForWorkingDir(parent, targetPaths)
	}

	if len(targetPaths) < pathFilterThreshold {
		moved, ok, err := c.findMovedFilesForSmallSet(parent, *child, targetPaths)
		if err != nil {
			return nil, err
		}

		if ok {
			return moved, nil
		}
	}

	// Large target set, or a target was added by the child or is not a
	// regular file: collect every change in the repository so renames
	// and copies can be resolved.
	deltas, err := c.repo.TreeChanges(parent.Hash, child.Hash)
	if err != nil {
		return nil, fmt.Errorf("collect tree changes: %w", err)
	}

	detected, err := c.renameDetector.DetectRenames(ctx, deltasToEntries(deltas), targetPaths)
	if err != nil {
		return nil, fmt.Errorf("detect renames: %w", err)
	}

	var moved []DiffFile

	for _, entry := range detected {
		if entry.ChangeType == rename.Delete {
			continue
		}

		if _, wanted := targetPaths[entry.NewPath]; !wanted {
			continue
		}

		moved = append(moved, newDiffFile(entry.NewPath, entry.OldPath, entry.OldID))
	}

	return moved, nil
}

// findMovedFilesForSmallSet diffs only the target paths. It reports
// ok=false when a target was added or is not a regular file on either
// side, which forces the slow path.
func (c *FileTreeComparator) findMovedFilesForSmallSet(
	parent, child gitlib.CommitInfo,
	targetPaths map[string]struct{},
) ([]DiffFile, bool, error) {
	paths := make([]string, 0, len(targetPaths))
	for path := range targetPaths {
		paths = append(paths, path)
	}

	deltas, err := c.repo.PathsDiff(parent.Hash, child.Hash, paths)
	if err != nil {
		return nil, false, fmt.Errorf("diff target paths: %w", err)
	}

	moved := make([]DiffFile, 0, len(deltas))

	for _, delta := range deltas {
		if _, wanted := targetPaths[delta.NewPath]; !wanted {
			continue
		}

		if delta.Status == gitlib.DeltaAdded || !delta.OldMode.IsRegular() || !delta.NewMode.IsRegular() {
			return nil, false, nil
		}

		moved = append(moved, newDiffFile(delta.NewPath, delta.NewPath, delta.OldID))
	}

	return moved, true, nil
}

// computeForWorkingDir maps target paths of the working tree onto the
// anchoring commit. Every target produces a DiffFile so the blamer can
// tell workdir-only files (zero old id) apart from committed ones.
func (c *FileTreeComparator) computeForWorkingDir(parent gitlib.CommitInfo, targetPaths map[string]struct{}) ([]DiffFile, error) {
	moved := make([]DiffFile, 0, len(targetPaths))

	for path := range targetPaths {
		entry, found, err := c.repo.TreeEntryAt(parent.Hash, path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s in parent: %w", path, err)
		}

		oldID := gitlib.ZeroHash()
		if found && entry.Mode.IsRegular() {
			oldID = entry.ID
		}

		moved = append(moved, newDiffFile(path, path, oldID))
	}

	return moved, nil
}

// deltasToEntries converts raw tree deltas into rename-detector entries.
func deltasToEntries(deltas []gitlib.TreeDelta) []*rename.Entry {
	entries := make([]*rename.Entry, 0, len(deltas))

	for _, delta := range deltas {
		switch delta.Status {
		case gitlib.DeltaAdded:
			entries = append(entries, rename.NewAdd(delta.NewPath, delta.NewID, delta.NewMode))
		case gitlib.DeltaDeleted:
			entries = append(entries, rename.NewDelete(delta.OldPath, delta.OldID, delta.OldMode))
		case gitlib.DeltaModified:
			entries = append(entries, rename.NewModify(delta.NewPath, delta.OldID, delta.NewID, delta.OldMode, delta.NewMode))
		}
	}

	return entries
}
