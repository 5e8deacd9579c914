package blame

import (
	"fmt"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// graphNodeFactory builds the start node of a walk by enumerating the
// files of a revision, filtered to the paths being blamed. Non-regular
// entries (symlinks, submodules) are never blame targets.
type graphNodeFactory struct {
	repo *gitlib.Repository
	// pathsToBlame restricts the walk; nil blames every file.
	pathsToBlame map[string]struct{}
}

func newGraphNodeFactory(repo *gitlib.Repository, pathsToBlame map[string]struct{}) *graphNodeFactory {
	return &graphNodeFactory{repo: repo, pathsToBlame: pathsToBlame}
}

func (f *graphNodeFactory) wantsPath(path string) bool {
	if f.pathsToBlame == nil {
		return true
	}

	_, ok := f.pathsToBlame[path]

	return ok
}

// createForCommit enumerates the blob entries of the commit's tree.
func (f *graphNodeFactory) createForCommit(commit gitlib.CommitInfo) (*graphNode, error) {
	entries, err := f.repo.CommitTreeFiles(commit.Hash)
	if err != nil {
		return nil, fmt.Errorf("enumerate start tree: %w", err)
	}

	var files []*fileCandidate

	for _, entry := range entries {
		if !f.wantsPath(entry.Path) || !entry.Mode.IsRegular() {
			continue
		}

		files = append(files, newFileCandidate(entry.Path, entry.Path, entry.ID))
	}

	return newCommitNodeWithFiles(commit, files), nil
}

// createForWorkingDir enumerates the working tree, anchored at the
// given parent commit. Blobs get the zero id: their content is read
// from the working directory by path. Bare repositories fall back to
// the parent commit's tree listing.
func (f *graphNodeFactory) createForWorkingDir(parent gitlib.CommitInfo) (*graphNode, error) {
	var (
		entries []gitlib.TreeFile
		err     error
	)

	if f.repo.IsBare() {
		entries, err = f.repo.CommitTreeFiles(parent.Hash)
	} else {
		entries, err = f.repo.WorkdirFiles()
	}

	if err != nil {
		return nil, fmt.Errorf("enumerate working tree: %w", err)
	}

	var files []*fileCandidate

	for _, entry := range entries {
		if !f.wantsPath(entry.Path) || !entry.Mode.IsRegular() {
			continue
		}

		files = append(files, newFileCandidate(entry.Path, entry.Path, gitlib.ZeroHash()))
	}

	return newWorkDirNode(parent, files), nil
}
