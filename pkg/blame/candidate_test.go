package blame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
	"github.com/Sumatoshi-tech/bulkblame/pkg/textdiff"
)

func newChildWithRegion(length int) *fileCandidate {
	child := newFileCandidate("f", "f", gitlib.ZeroHash())
	child.regionList = &region{length: length}

	return child
}

func TestTakeBlameLastLineEdited(t *testing.T) {
	t.Parallel()

	// A 5-line file whose last line was rewritten by the child: the
	// child keeps exactly that line, the parent takes the other four.
	child := newChildWithRegion(5)
	parent := newFileCandidate("f", "f", gitlib.ZeroHash())

	edits := textdiff.EditList{{BeginA: 4, EndA: 5, BeginB: 4, EndB: 5}}
	parent.takeBlame(edits, child)

	assert.Equal(t, [][3]int{{0, 0, 4}}, collectRegions(parent.regionList))
	assert.Equal(t, [][3]int{{4, 4, 1}}, collectRegions(child.regionList))
}

func TestTakeBlameInsertionAtEnd(t *testing.T) {
	t.Parallel()

	// Two lines appended by the child: the first two move to the parent.
	child := newChildWithRegion(4)
	parent := newFileCandidate("f", "f", gitlib.ZeroHash())

	edits := textdiff.EditList{{BeginA: 2, EndA: 2, BeginB: 2, EndB: 4}}
	parent.takeBlame(edits, child)

	assert.Equal(t, [][3]int{{0, 0, 2}}, collectRegions(parent.regionList))
	assert.Equal(t, [][3]int{{2, 2, 2}}, collectRegions(child.regionList))
}

func TestTakeBlameDeletionShiftsTrailingRegions(t *testing.T) {
	t.Parallel()

	// The parent had two extra lines at the start that the child
	// deleted: every child line maps to a shifted parent line.
	child := newChildWithRegion(2)
	parent := newFileCandidate("f", "f", gitlib.ZeroHash())

	edits := textdiff.EditList{{BeginA: 0, EndA: 2, BeginB: 0, EndB: 0}}
	parent.takeBlame(edits, child)

	require.Nil(t, child.regionList)
	// d = endB-endA = -2 is subtracted from sourceStart, moving it to 2.
	assert.Equal(t, [][3]int{{0, 2, 2}}, collectRegions(parent.regionList))
}

func TestTakeBlameRegionInsideEditStaysOnChild(t *testing.T) {
	t.Parallel()

	child := newChildWithRegion(3)
	parent := newFileCandidate("f", "f", gitlib.ZeroHash())

	// The whole file was replaced: nothing moves to the parent.
	edits := textdiff.EditList{{BeginA: 0, EndA: 1, BeginB: 0, EndB: 3}}
	parent.takeBlame(edits, child)

	assert.Nil(t, parent.regionList)
	assert.Equal(t, [][3]int{{0, 0, 3}}, collectRegions(child.regionList))
}

func TestTakeBlameMiddleEditSplitsRegion(t *testing.T) {
	t.Parallel()

	// Line 2 of 5 rewritten: lines 0-1 and 3-4 belong to the parent,
	// line 2 to the child.
	child := newChildWithRegion(5)
	parent := newFileCandidate("f", "f", gitlib.ZeroHash())

	edits := textdiff.EditList{{BeginA: 2, EndA: 3, BeginB: 2, EndB: 3}}
	parent.takeBlame(edits, child)

	assert.Equal(t, [][3]int{{0, 0, 2}, {3, 3, 2}}, collectRegions(parent.regionList))
	assert.Equal(t, [][3]int{{2, 2, 1}}, collectRegions(child.regionList))
}

func TestTakeBlameNoRegionsIsNoOp(t *testing.T) {
	t.Parallel()

	child := newFileCandidate("f", "f", gitlib.ZeroHash())
	parent := newFileCandidate("f", "f", gitlib.ZeroHash())

	parent.takeBlame(textdiff.EditList{{BeginA: 0, EndA: 1, BeginB: 0, EndB: 1}}, child)

	assert.Nil(t, parent.regionList)
	assert.Nil(t, child.regionList)
}
