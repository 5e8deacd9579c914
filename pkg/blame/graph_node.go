package blame

import (
	"math"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// graphNode is a node of the commit-graph walk: a commit (or the
// working directory) plus every file candidate whose unattributed
// regions last passed through it.
//
// The commit variant wraps a commit snapshot. The working-directory
// variant has a nil commit, is anchored at one parent commit, and
// reports the maximum time so it is always processed first.
type graphNode struct {
	// commit is nil when the node represents the working directory.
	commit *gitlib.CommitInfo
	// workDirParent anchors the working-directory variant.
	workDirParent *gitlib.CommitInfo

	// filesByPath groups candidates by their path in this commit. More
	// than one candidate can share a path when several original paths
	// converged on the same file through different rename histories.
	filesByPath map[string][]*fileCandidate
	// allFiles duplicates the candidates as a flat list for iteration.
	allFiles []*fileCandidate
}

func newCommitNode(commit gitlib.CommitInfo, expectedFiles int) *graphNode {
	return &graphNode{
		commit:      &commit,
		filesByPath: make(map[string][]*fileCandidate, expectedFiles),
		allFiles:    make([]*fileCandidate, 0, expectedFiles),
	}
}

func newCommitNodeWithFiles(commit gitlib.CommitInfo, files []*fileCandidate) *graphNode {
	node := newCommitNode(commit, len(files))
	for _, file := range files {
		node.addFile(file)
	}

	return node
}

func newWorkDirNode(parent gitlib.CommitInfo, files []*fileCandidate) *graphNode {
	node := &graphNode{
		workDirParent: &parent,
		filesByPath:   make(map[string][]*fileCandidate, len(files)),
		allFiles:      make([]*fileCandidate, 0, len(files)),
	}
	for _, file := range files {
		node.addFile(file)
	}

	return node
}

func (n *graphNode) isWorkDir() bool {
	return n.commit == nil
}

// identity keys the node in the frontier: the commit hash, or the zero
// hash for the working-directory node.
func (n *graphNode) identity() gitlib.Hash {
	if n.commit == nil {
		return gitlib.ZeroHash()
	}

	return n.commit.Hash
}

// time orders the frontier. The working directory reports the maximum
// value so it is expanded before any commit.
func (n *graphNode) time() int64 {
	if n.commit == nil {
		return math.MaxInt64
	}

	return n.commit.Time
}

func (n *graphNode) parentCount() int {
	if n.commit == nil {
		return 1
	}

	return len(n.commit.Parents)
}

func (n *graphNode) parentHash(i int) gitlib.Hash {
	if n.commit == nil {
		return n.workDirParent.Hash
	}

	return n.commit.Parents[i]
}

func (n *graphNode) addFile(file *fileCandidate) {
	n.filesByPath[file.path] = append(n.filesByPath[file.path], file)
	n.allFiles = append(n.allFiles, file)
}

// filesAt returns the candidates currently at the given path.
func (n *graphNode) filesAt(path string) []*fileCandidate {
	return n.filesByPath[path]
}

// pathSet returns the set of candidate paths in this node.
func (n *graphNode) pathSet() map[string]struct{} {
	paths := make(map[string]struct{}, len(n.filesByPath))
	for path := range n.filesByPath {
		paths[path] = struct{}{}
	}

	return paths
}

// moreRecentThan orders two nodes for the frontier: greater commit time
// first, the working directory before everything, ties broken by
// descending commit hash.
func (n *graphNode) moreRecentThan(other *graphNode) bool {
	if n.time() != other.time() {
		return n.time() > other.time()
	}

	if n.isWorkDir() != other.isWorkDir() {
		return n.isWorkDir()
	}

	return n.identity().Compare(other.identity()) > 0
}
