package rename

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreScale = 100

func mustIndex(t *testing.T, content string) *SimilarityIndex {
	t.Helper()

	index := NewSimilarityIndex()
	require.NoError(t, index.HashContent([]byte(content)))

	return index
}

func TestSimilarityIndexSelfScoreIsScale(t *testing.T) {
	t.Parallel()

	index := mustIndex(t, "alpha\nbeta\ngamma\n")

	assert.Equal(t, scoreScale, index.Score(index, scoreScale))
}

func TestSimilarityIndexDisjointScoreIsZero(t *testing.T) {
	t.Parallel()

	a := mustIndex(t, "alpha\nbeta\n")
	b := mustIndex(t, "gamma\ndelta\n")

	assert.Equal(t, 0, a.Score(b, scoreScale))
}

func TestSimilarityIndexEmptyBlobsAreIdentical(t *testing.T) {
	t.Parallel()

	a := mustIndex(t, "")
	b := mustIndex(t, "")

	assert.Equal(t, scoreScale, a.Score(b, scoreScale))
}

func TestSimilarityIndexPartialOverlap(t *testing.T) {
	t.Parallel()

	a := mustIndex(t, "one\ntwo\nthree\nfour\n")
	b := mustIndex(t, "one\ntwo\nthree\nfive\n")

	score := a.Score(b, scoreScale)
	assert.Greater(t, score, 50)
	assert.Less(t, score, scoreScale)
}

func TestSimilarityIndexLongLinesTruncatedForHashing(t *testing.T) {
	t.Parallel()

	// Lines differing only beyond the shingle size hash identically,
	// and the shared byte count is bounded by the smaller side.
	prefix := strings.Repeat("x", shingleSize)

	a := mustIndex(t, prefix+"-first-tail\n")
	b := mustIndex(t, prefix+"-second-and-much-longer-tail\n")

	assert.Positive(t, a.Score(b, scoreScale))
}

func TestIsBinary(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBinary([]byte{'a', 0x00, 'b'}))
	assert.False(t, IsBinary([]byte("plain text\nwith lines\n")))
	// A NUL past the probe window is not inspected.
	tail := append(bytes.Repeat([]byte{'a'}, binaryProbeSize), 0x00)
	assert.False(t, IsBinary(tail))
}
