package gitlib

import (
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/bulkblame/pkg/safeconv"
)

// CommitInfo is a plain snapshot of the commit fields the blame walk needs.
// Snapshotting keeps libgit2 objects from being held across the walk.
type CommitInfo struct {
	Hash          Hash
	Time          int64 // commit time, seconds since epoch
	Parents       []Hash
	AuthorEmail   string
	CommitterWhen time.Time
	TreeID        Hash
}

// CommitInfo looks up a commit and snapshots it.
func (r *Repository) CommitInfo(hash Hash) (CommitInfo, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return CommitInfo{}, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	defer commit.Free()

	return snapshotCommit(commit), nil
}

func snapshotCommit(commit *git2go.Commit) CommitInfo {
	parentCount := safeconv.MustUintToInt(commit.ParentCount())
	parents := make([]Hash, parentCount)

	for i := range parentCount {
		parents[i] = HashFromOid(commit.ParentId(safeconv.MustIntToUint(i)))
	}

	return CommitInfo{
		Hash:          HashFromOid(commit.Id()),
		Time:          commit.Committer().When.Unix(),
		Parents:       parents,
		AuthorEmail:   commit.Author().Email,
		CommitterWhen: commit.Committer().When,
		TreeID:        HashFromOid(commit.TreeId()),
	}
}
