package blame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// collectRegions flattens a region list for assertions.
func collectRegions(head *region) [][3]int {
	var out [][3]int
	for r := head; r != nil; r = r.next {
		out = append(out, [3]int{r.resultStart, r.sourceStart, r.length})
	}

	return out
}

func TestRegionSplitFirstIsPartition(t *testing.T) {
	t.Parallel()

	original := &region{resultStart: 10, sourceStart: 20, length: 8}

	head := original.splitFirst(5, 3)
	original.slideAndShrink(3)

	// The two halves cover the original result range exactly; the head
	// takes the given source start, the rest keeps its own source offset.
	assert.Equal(t, 10, head.resultStart)
	assert.Equal(t, 5, head.sourceStart)
	assert.Equal(t, 3, head.length)

	assert.Equal(t, 13, original.resultStart)
	assert.Equal(t, 23, original.sourceStart)
	assert.Equal(t, 5, original.length)

	assert.Equal(t, head.resultStart+head.length, original.resultStart)
}

func TestAppendRegionCoalescesContiguousClaims(t *testing.T) {
	t.Parallel()

	owner := newFileCandidate("a", "a", gitlib.ZeroHash())

	tail := appendRegion(nil, owner, &region{resultStart: 0, sourceStart: 0, length: 2})
	tail = appendRegion(tail, owner, &region{resultStart: 2, sourceStart: 2, length: 3})

	require.NotNil(t, owner.regionList)
	assert.Equal(t, [][3]int{{0, 0, 5}}, collectRegions(owner.regionList))
	assert.Same(t, owner.regionList, tail)
}

func TestAppendRegionKeepsDisjointClaimsApart(t *testing.T) {
	t.Parallel()

	owner := newFileCandidate("a", "a", gitlib.ZeroHash())

	tail := appendRegion(nil, owner, &region{resultStart: 0, sourceStart: 0, length: 2})
	// Contiguous in the result but not in the source: no coalescing.
	appendRegion(tail, owner, &region{resultStart: 2, sourceStart: 5, length: 3})

	assert.Equal(t, [][3]int{{0, 0, 2}, {2, 5, 3}}, collectRegions(owner.regionList))
}

func TestMergeRegionsInterleavesSorted(t *testing.T) {
	t.Parallel()

	a := newFileCandidate("f", "f", gitlib.ZeroHash())
	a.regionList = &region{resultStart: 0, sourceStart: 0, length: 2,
		next: &region{resultStart: 6, sourceStart: 6, length: 1}}

	b := newFileCandidate("f", "f", gitlib.ZeroHash())
	b.regionList = &region{resultStart: 3, sourceStart: 3, length: 2}

	a.mergeRegions(b)

	assert.Nil(t, b.regionList)
	assert.Equal(t, [][3]int{{0, 0, 2}, {3, 3, 2}, {6, 6, 1}}, collectRegions(a.regionList))
}

func TestMergeRegionsCoalescesAtJoin(t *testing.T) {
	t.Parallel()

	a := newFileCandidate("f", "f", gitlib.ZeroHash())
	a.regionList = &region{resultStart: 0, sourceStart: 0, length: 2}

	b := newFileCandidate("f", "f", gitlib.ZeroHash())
	b.regionList = &region{resultStart: 2, sourceStart: 2, length: 2}

	a.mergeRegions(b)

	assert.Equal(t, [][3]int{{0, 0, 4}}, collectRegions(a.regionList))
}

func TestMergeRegionsIsCommutative(t *testing.T) {
	t.Parallel()

	build := func() (*fileCandidate, *fileCandidate) {
		left := newFileCandidate("f", "f", gitlib.ZeroHash())
		left.regionList = &region{resultStart: 0, sourceStart: 0, length: 1,
			next: &region{resultStart: 4, sourceStart: 4, length: 2}}

		right := newFileCandidate("f", "f", gitlib.ZeroHash())
		right.regionList = &region{resultStart: 1, sourceStart: 1, length: 3}

		return left, right
	}

	first, second := build()
	first.mergeRegions(second)

	swappedFirst, swappedSecond := build()
	swappedSecond.mergeRegions(swappedFirst)

	assert.Equal(t, collectRegions(first.regionList), collectRegions(swappedSecond.regionList))
	// Fully contiguous claims collapse into a single region.
	assert.Equal(t, [][3]int{{0, 0, 6}}, collectRegions(first.regionList))
}
