package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// DeltaStatus classifies a file change between two trees.
type DeltaStatus int

const (
	// DeltaAdded marks a file present only in the child tree.
	DeltaAdded DeltaStatus = iota
	// DeltaDeleted marks a file present only in the parent tree.
	DeltaDeleted
	// DeltaModified marks a file whose content or mode changed.
	DeltaModified
)

// TreeDelta is one raw file change between a parent and a child tree.
// Rename detection is not performed at this level.
type TreeDelta struct {
	Status  DeltaStatus
	OldPath string
	NewPath string
	OldID   Hash
	NewID   Hash
	OldMode Filemode
	NewMode Filemode
}

// TreeChanges lists every added, deleted and modified file between the
// trees of two commits. Type changes of a path surface as a delete plus
// an add, which is the shape the rename detector expects.
func (r *Repository) TreeChanges(parentCommit, childCommit Hash) ([]TreeDelta, error) {
	return r.diffCommitTrees(parentCommit, childCommit, nil)
}

// PathsDiff lists the changes between two commits restricted to the
// given literal paths. Used by the comparator's fast path where the
// target set is small.
func (r *Repository) PathsDiff(parentCommit, childCommit Hash, paths []string) ([]TreeDelta, error) {
	return r.diffCommitTrees(parentCommit, childCommit, paths)
}

func (r *Repository) diffCommitTrees(parentCommit, childCommit Hash, paths []string) ([]TreeDelta, error) {
	parentTree, err := r.lookupCommitTree(parentCommit)
	if err != nil {
		return nil, err
	}
	defer parentTree.Free()

	childTree, err := r.lookupCommitTree(childCommit)
	if err != nil {
		return nil, err
	}
	defer childTree.Free()

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	if len(paths) > 0 {
		opts.Pathspec = paths
		// Paths are literal file names, not fnmatch patterns.
		opts.Flags |= git2go.DiffDisablePathspecMatch
	}

	diff, err := r.repo.DiffTreeToTree(parentTree, childTree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	defer func() {
		_ = diff.Free()
	}()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("get num deltas: %w", err)
	}

	deltas := make([]TreeDelta, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, fmt.Errorf("get delta %d: %w", i, deltaErr)
		}

		converted, ok := convertDelta(delta)
		if ok {
			deltas = append(deltas, converted)
		}
	}

	return deltas, nil
}

func convertDelta(delta git2go.DiffDelta) (TreeDelta, bool) {
	out := TreeDelta{
		OldPath: delta.OldFile.Path,
		NewPath: delta.NewFile.Path,
		OldID:   HashFromOid(delta.OldFile.Oid),
		NewID:   HashFromOid(delta.NewFile.Oid),
		OldMode: Filemode(delta.OldFile.Mode),
		NewMode: Filemode(delta.NewFile.Mode),
	}

	switch delta.Status {
	case git2go.DeltaAdded:
		out.Status = DeltaAdded
	case git2go.DeltaDeleted:
		out.Status = DeltaDeleted
	case git2go.DeltaModified:
		out.Status = DeltaModified
	default:
		return TreeDelta{}, false
	}

	return out, true
}

func (r *Repository) lookupCommitTree(commitHash Hash) (*git2go.Tree, error) {
	commit, err := r.repo.LookupCommit(commitHash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", commitHash, err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}

	return tree, nil
}
