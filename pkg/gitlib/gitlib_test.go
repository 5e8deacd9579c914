package gitlib_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// testRepo wraps a repository for integration testing.
type testRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
	repo   *gitlib.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()

	native, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	repo, err := gitlib.OpenRepository(dir)
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.Free()
		native.Free()
	})

	return &testRepo{t: t, path: dir, native: native, repo: repo}
}

func (tr *testRepo) createFile(name, content string) {
	tr.t.Helper()

	path := filepath.Join(tr.path, name)

	dir := filepath.Dir(path)
	if dir != tr.path {
		require.NoError(tr.t, os.MkdirAll(dir, 0o755))
	}

	require.NoError(tr.t, os.WriteFile(path, []byte(content), 0o644))
}

func (tr *testRepo) commit(message string) gitlib.Hash {
	tr.t.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	require.NoError(tr.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(tr.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}

	var parents []*git2go.Commit

	head, headErr := tr.native.Head()
	if headErr == nil {
		headCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return gitlib.HashFromOid(oid)
}

func TestOpenRepositoryNotFound(t *testing.T) {
	t.Parallel()

	_, err := gitlib.OpenRepository(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestHeadCommitUnborn(t *testing.T) {
	tr := newTestRepo(t)

	_, err := tr.repo.HeadCommit()
	require.ErrorIs(t, err, gitlib.ErrNoHead)
}

func TestCommitInfoSnapshot(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("a.txt", "hello\n")
	c1 := tr.commit("first")

	tr.createFile("a.txt", "hello\nworld\n")
	c2 := tr.commit("second")

	info, err := tr.repo.CommitInfo(c2)
	require.NoError(t, err)

	assert.Equal(t, c2, info.Hash)
	assert.Equal(t, []gitlib.Hash{c1}, info.Parents)
	assert.Equal(t, "test@example.com", info.AuthorEmail)
	assert.Positive(t, info.Time)
	assert.False(t, info.TreeID.IsZero())
}

func TestCommitTreeFilesRecursesSubdirectories(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("top.txt", "top\n")
	tr.createFile("nested/deep/leaf.txt", "leaf\n")
	c1 := tr.commit("layout")

	files, err := tr.repo.CommitTreeFiles(c1)
	require.NoError(t, err)

	byPath := map[string]gitlib.TreeFile{}
	for _, file := range files {
		byPath[file.Path] = file
	}

	require.Contains(t, byPath, "top.txt")
	require.Contains(t, byPath, "nested/deep/leaf.txt")
	assert.True(t, byPath["top.txt"].Mode.IsRegular())
	assert.False(t, byPath["top.txt"].ID.IsZero())
}

func TestTreeEntryAt(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("dir/file.txt", "content\n")
	c1 := tr.commit("add")

	entry, found, err := tr.repo.TreeEntryAt(c1, "dir/file.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, entry.Mode.IsRegular())

	_, found, err = tr.repo.TreeEntryAt(c1, "nope.txt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTreeChanges(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("kept.txt", "same\n")
	tr.createFile("gone.txt", "bye\n")
	tr.createFile("changed.txt", "v1\n")
	c1 := tr.commit("base")

	require.NoError(t, os.Remove(filepath.Join(tr.path, "gone.txt")))
	tr.createFile("changed.txt", "v2\n")
	tr.createFile("fresh.txt", "hi\n")
	c2 := tr.commit("update")

	deltas, err := tr.repo.TreeChanges(c1, c2)
	require.NoError(t, err)

	statusByPath := map[string]gitlib.DeltaStatus{}

	for _, delta := range deltas {
		path := delta.NewPath
		if delta.Status == gitlib.DeltaDeleted {
			path = delta.OldPath
		}

		statusByPath[path] = delta.Status
	}

	assert.Equal(t, gitlib.DeltaDeleted, statusByPath["gone.txt"])
	assert.Equal(t, gitlib.DeltaAdded, statusByPath["fresh.txt"])
	assert.Equal(t, gitlib.DeltaModified, statusByPath["changed.txt"])
	assert.NotContains(t, statusByPath, "kept.txt")
}

func TestPathsDiffRestrictsToTargets(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("a.txt", "a1\n")
	tr.createFile("b.txt", "b1\n")
	c1 := tr.commit("base")

	tr.createFile("a.txt", "a2\n")
	tr.createFile("b.txt", "b2\n")
	c2 := tr.commit("update")

	deltas, err := tr.repo.PathsDiff(c1, c2, []string{"a.txt"})
	require.NoError(t, err)

	require.Len(t, deltas, 1)
	assert.Equal(t, "a.txt", deltas[0].NewPath)
	assert.Equal(t, gitlib.DeltaModified, deltas[0].Status)
}

func TestWorkdirFilesSkipsGitDirAndIgnored(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("visible.txt", "v\n")
	tr.createFile("build.log", "noise\n")
	tr.createFile(".gitignore", "*.log\n")

	files, err := tr.repo.WorkdirFiles()
	require.NoError(t, err)

	paths := map[string]struct{}{}
	for _, file := range files {
		paths[file.Path] = struct{}{}
	}

	assert.Contains(t, paths, "visible.txt")
	assert.Contains(t, paths, ".gitignore")
	assert.NotContains(t, paths, "build.log")

	for path := range paths {
		assert.NotContains(t, path, ".git/")
	}
}

func TestReadWorkdirFile(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("note.md", "remember\n")

	data, err := tr.repo.ReadWorkdirFile("note.md")
	require.NoError(t, err)
	assert.Equal(t, "remember\n", string(data))

	_, err = tr.repo.ReadWorkdirFile("../outside")
	require.Error(t, err)
}

func TestResolveRevision(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("f.txt", "1\n")
	c1 := tr.commit("one")

	tr.createFile("f.txt", "1\n2\n")
	c2 := tr.commit("two")

	resolved, err := tr.repo.ResolveRevision("HEAD")
	require.NoError(t, err)
	assert.Equal(t, c2, resolved)

	resolved, err = tr.repo.ResolveRevision("HEAD~1")
	require.NoError(t, err)
	assert.Equal(t, c1, resolved)

	_, err = tr.repo.ResolveRevision("does-not-exist")
	require.Error(t, err)
}

func TestBlobBytesAndSize(t *testing.T) {
	tr := newTestRepo(t)

	tr.createFile("blob.txt", "payload\n")
	c1 := tr.commit("blob")

	entry, found, err := tr.repo.TreeEntryAt(c1, "blob.txt")
	require.NoError(t, err)
	require.True(t, found)

	data, err := tr.repo.BlobBytes(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(data))

	size, err := tr.repo.BlobSize(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}

func TestHashRoundTrip(t *testing.T) {
	t.Parallel()

	const hex = "0123456789abcdef0123456789abcdef01234567"

	hash := gitlib.NewHash(hex)
	assert.Equal(t, hex, hash.String())
	assert.False(t, hash.IsZero())
	assert.True(t, gitlib.ZeroHash().IsZero())

	assert.Equal(t, 0, hash.Compare(hash))
	assert.Equal(t, -1, gitlib.ZeroHash().Compare(hash))
}

func TestFilemodeTypeBits(t *testing.T) {
	t.Parallel()

	assert.True(t, gitlib.ModeBlob.IsRegular())
	assert.True(t, gitlib.ModeBlobExecutable.IsRegular())
	assert.False(t, gitlib.ModeSymlink.IsRegular())
	assert.False(t, gitlib.ModeGitlink.IsRegular())

	assert.True(t, gitlib.SameType(gitlib.ModeBlob, gitlib.ModeBlobExecutable))
	assert.False(t, gitlib.SameType(gitlib.ModeBlob, gitlib.ModeSymlink))
}
