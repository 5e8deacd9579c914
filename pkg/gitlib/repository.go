package gitlib

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrNoHead is returned when the repository has no resolvable HEAD commit.
var ErrNoHead = errors.New("repository has no HEAD commit")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened with.
func (r *Repository) Path() string {
	return r.path
}

// WorkdirRoot returns the working directory root, or "" for a bare repository.
func (r *Repository) WorkdirRoot() string {
	return r.repo.Workdir()
}

// IsBare reports whether the repository has no working directory.
func (r *Repository) IsBare() bool {
	return r.repo.IsBare()
}

// Fork opens an independent handle to the same repository.
// libgit2 object readers are not thread safe, so every concurrent
// consumer must hold its own handle.
func (r *Repository) Fork() (*Repository, error) {
	return OpenRepository(r.path)
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// HeadCommit resolves HEAD to a commit hash.
func (r *Repository) HeadCommit() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %s", ErrNoHead, err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// ResolveRevision resolves a revision spec (hash, branch, tag, HEAD~2…)
// to a commit hash.
func (r *Repository) ResolveRevision(spec string) (Hash, error) {
	obj, err := r.repo.RevparseSingle(spec)
	if err != nil {
		return Hash{}, fmt.Errorf("resolve revision %q: %w", spec, err)
	}
	defer obj.Free()

	commit, err := obj.AsCommit()
	if err != nil {
		return Hash{}, fmt.Errorf("revision %q is not a commit: %w", spec, err)
	}

	return HashFromOid(commit.Id()), nil
}

// IsPathIgnored reports whether the given workdir-relative path is
// excluded by the repository's ignore rules.
func (r *Repository) IsPathIgnored(path string) bool {
	ignored, err := r.repo.IsPathIgnored(path)
	if err != nil {
		return false
	}

	return ignored
}

// BlobBytes returns the full contents of a blob.
func (r *Repository) BlobBytes(hash Hash) ([]byte, error) {
	blob, err := r.repo.LookupBlob(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup blob %s: %w", hash, err)
	}
	defer blob.Free()

	contents := blob.Contents()
	out := make([]byte, len(contents))
	copy(out, contents)

	return out, nil
}

// BlobSize returns the size of a blob in bytes without loading its contents.
func (r *Repository) BlobSize(hash Hash) (int64, error) {
	blob, err := r.repo.LookupBlob(hash.ToOid())
	if err != nil {
		return 0, fmt.Errorf("lookup blob %s: %w", hash, err)
	}
	defer blob.Free()

	return blob.Size(), nil
}
