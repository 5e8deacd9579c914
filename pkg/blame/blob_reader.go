package blame

import (
	"fmt"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
	"github.com/Sumatoshi-tech/bulkblame/pkg/textdiff"
)

// BlobReader loads file content for candidates: committed blobs by
// object id, working-directory files by path. A reader is not safe for
// concurrent use; blame workers fork their own.
type BlobReader struct {
	repo *gitlib.Repository
	// contentOverrides substitutes in-memory content for chosen
	// working-directory paths.
	contentOverrides map[string][]byte
	// forked marks readers owning their repository handle.
	forked bool
}

func newBlobReader(repo *gitlib.Repository, contentOverrides map[string][]byte) *BlobReader {
	return &BlobReader{repo: repo, contentOverrides: contentOverrides}
}

// Fork opens an independent reader over the same repository for use on
// another goroutine. The forked reader must be closed.
func (r *BlobReader) Fork() (*BlobReader, error) {
	repo, err := r.repo.Fork()
	if err != nil {
		return nil, fmt.Errorf("fork blob reader: %w", err)
	}

	return &BlobReader{repo: repo, contentOverrides: r.contentOverrides, forked: true}, nil
}

// Close releases a forked reader's repository handle.
func (r *BlobReader) Close() {
	if r.forked {
		r.repo.Free()
	}
}

// loadText loads a candidate's content as an indexed line sequence.
func (r *BlobReader) loadText(fc *fileCandidate) (*textdiff.Text, error) {
	data, err := r.loadBytes(fc)
	if err != nil {
		return nil, err
	}

	return textdiff.NewText(data), nil
}

func (r *BlobReader) loadBytes(fc *fileCandidate) ([]byte, error) {
	if fc.blob.IsZero() {
		return r.loadWorkdirBytes(fc.originalPath)
	}

	data, err := r.repo.BlobBytes(fc.blob)
	if err != nil {
		return nil, fmt.Errorf("load blob for %s: %w", fc.path, err)
	}

	return data, nil
}

// loadWorkdirBytes reads working-directory content by path, honoring
// content overrides. Bare repositories read from the HEAD tree instead.
func (r *BlobReader) loadWorkdirBytes(path string) ([]byte, error) {
	if override, ok := r.contentOverrides[path]; ok {
		return override, nil
	}

	if !r.repo.IsBare() {
		return r.repo.ReadWorkdirFile(path)
	}

	head, err := r.repo.HeadCommit()
	if err != nil {
		return nil, err
	}

	entry, found, err := r.repo.TreeEntryAt(head, path)
	if err != nil {
		return nil, err
	}

	if !found || !entry.Mode.IsRegular() {
		return nil, fmt.Errorf("file not found in HEAD tree: %s", path)
	}

	return r.repo.BlobBytes(entry.ID)
}

// contentSource adapts the reader to the rename detector's needs.
// Sizes of missing objects report zero so the size prefilter drops the
// pair instead of failing the run.
type contentSource struct {
	reader *BlobReader
}

func (c contentSource) Size(id gitlib.Hash, _ string) (int64, error) {
	size, err := c.reader.repo.BlobSize(id)
	if err != nil {
		return 0, nil
	}

	return size, nil
}

func (c contentSource) Open(id gitlib.Hash, path string) ([]byte, error) {
	data, err := c.reader.repo.BlobBytes(id)
	if err != nil {
		return nil, fmt.Errorf("open blob for %s: %w", path, err)
	}

	return data, nil
}
