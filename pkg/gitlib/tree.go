package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/bulkblame/pkg/safeconv"
)

// TreeFile is one blob entry of a recursively walked tree.
type TreeFile struct {
	Path string
	Mode Filemode
	ID   Hash
}

// CommitTreeFiles walks the commit's tree recursively and returns every
// blob entry with its path, mode and object id. Subtrees are descended;
// submodule (gitlink) entries are returned as-is so callers can filter
// on mode.
func (r *Repository) CommitTreeFiles(commitHash Hash) ([]TreeFile, error) {
	commit, err := r.repo.LookupCommit(commitHash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", commitHash, err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}
	defer tree.Free()

	var files []TreeFile

	walkErr := r.walkTree(tree, "", &files)
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}

func (r *Repository) walkTree(tree *git2go.Tree, prefix string, out *[]TreeFile) error {
	count := tree.EntryCount()

	for i := uint64(0); i < count; i++ {
		entry := tree.EntryByIndex(i)
		if entry == nil {
			continue
		}

		path := entry.Name
		if prefix != "" {
			path = prefix + "/" + path
		}

		if entry.Type == git2go.ObjectTree {
			subtree, lookupErr := r.repo.LookupTree(entry.Id)
			if lookupErr != nil {
				return fmt.Errorf("lookup subtree %s: %w", path, lookupErr)
			}

			walkErr := r.walkTree(subtree, path, out)
			subtree.Free()

			if walkErr != nil {
				return walkErr
			}

			continue
		}

		*out = append(*out, TreeFile{
			Path: path,
			Mode: Filemode(safeconv.MustIntToUint32(int(entry.Filemode))),
			ID:   HashFromOid(entry.Id),
		})
	}

	return nil
}

// TreeEntryAt returns the entry at path in the commit's tree, or ok=false
// when the path does not exist.
func (r *Repository) TreeEntryAt(commitHash Hash, path string) (TreeFile, bool, error) {
	commit, err := r.repo.LookupCommit(commitHash.ToOid())
	if err != nil {
		return TreeFile{}, false, fmt.Errorf("lookup commit %s: %w", commitHash, err)
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return TreeFile{}, false, fmt.Errorf("get commit tree: %w", err)
	}
	defer tree.Free()

	entry, entryErr := tree.EntryByPath(path)
	if entryErr != nil {
		return TreeFile{}, false, nil
	}

	return TreeFile{
		Path: path,
		Mode: Filemode(safeconv.MustIntToUint32(int(entry.Filemode))),
		ID:   HashFromOid(entry.Id),
	}, true, nil
}
