package blame

import (
	"strings"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
	"github.com/Sumatoshi-tech/bulkblame/pkg/textdiff"
)

// fileCandidate is one file being traced through history. It retains a
// region list describing the sections of the result file it is still
// responsible for; regions leave the list when an ancestor accepts them
// via takeBlame or when the candidate's commit is finally blamed.
type fileCandidate struct {
	// originalPath is the path at the starting revision; never mutated.
	originalPath string
	// path is the path inside the commit currently holding the candidate.
	path string
	// blob identifies the content; the zero hash means "working
	// directory content at originalPath".
	blob gitlib.Hash
	// regionList is the head of the sorted region list, nil when
	// nothing is left to attribute.
	regionList *region
}

func newFileCandidate(originalPath, path string, blob gitlib.Hash) *fileCandidate {
	return &fileCandidate{originalPath: originalPath, path: path, blob: blob}
}

// clearRegionList detaches and returns the region list.
func (fc *fileCandidate) clearRegionList() *region {
	head := fc.regionList
	fc.regionList = nil

	return head
}

// takeBlame moves responsibility for the unchanged portions of the
// child's regions onto this (parent-side) candidate, applying the edit
// list that transforms the parent content (A) into the child content (B).
// Regions covered by an edit stay with the child.
func (fc *fileCandidate) takeBlame(edits textdiff.EditList, child *fileCandidate) {
	splitBlame(edits, fc, child)
}

func splitBlame(edits textdiff.EditList, a, b *fileCandidate) {
	cursor := b.clearRegionList()

	var aTail, bTail *region

	editIdx := 0
	for editIdx < len(edits) {
		// No regions left: neither side is responsible for anything
		// more, remaining edits are irrelevant.
		if cursor == nil {
			return
		}

		edit := edits[editIdx]

		// Edit ends before the region. Skip the edit.
		if edit.EndB <= cursor.sourceStart {
			editIdx++

			continue
		}

		// Region starts before the edit: the prefix is untouched by it
		// and belongs to A.
		if cursor.sourceStart < edit.BeginB {
			d := edit.BeginB - cursor.sourceStart
			if cursor.length <= d {
				// The whole region precedes the edit.
				next := cursor.next
				cursor.sourceStart = edit.BeginA - d
				aTail = appendRegion(aTail, a, cursor)
				cursor = next

				continue
			}

			aTail = appendRegion(aTail, a, cursor.splitFirst(edit.BeginA-d, d))
			cursor.slideAndShrink(d)
		}

		// Now edit.BeginB <= cursor.sourceStart.

		// An empty B side cannot overlap any region.
		if edit.LengthB() == 0 {
			editIdx++

			continue
		}

		// Region ends inside the edit: the child keeps it.
		regionEnd := cursor.sourceStart + cursor.length
		if regionEnd <= edit.EndB {
			next := cursor.next
			bTail = appendRegion(bTail, b, cursor)
			cursor = next

			if regionEnd == edit.EndB {
				editIdx++
			}

			continue
		}

		// Region extends beyond the edit: keep the covered half on the
		// child and continue with the rest.
		covered := edit.EndB - cursor.sourceStart
		bTail = appendRegion(bTail, b, cursor.splitFirst(cursor.sourceStart, covered))
		cursor.slideAndShrink(covered)
		editIdx++
	}

	if cursor == nil {
		return
	}

	// Everything after the last edit belongs to A, shifted into the A
	// coordinate space.
	last := edits[len(edits)-1]
	endB := last.EndB
	d := endB - last.EndA

	if aTail == nil {
		a.regionList = cursor
	} else {
		aTail.next = cursor
	}

	for ; cursor != nil; cursor = cursor.next {
		if endB <= cursor.sourceStart {
			cursor.sourceStart -= d
		}
	}
}

// canMergeRegions reports whether two candidates track the same file of
// the same commit node.
func (fc *fileCandidate) canMergeRegions(other *fileCandidate) bool {
	return fc.path == other.path && fc.originalPath == other.originalPath
}

// mergeRegions merge-joins the other candidate's sorted region list
// into this one, preserving order and re-applying coalescing at joins.
// The other candidate is left empty.
func (fc *fileCandidate) mergeRegions(other *fileCandidate) {
	a := fc.clearRegionList()
	b := other.clearRegionList()

	var tail *region

	for a != nil && b != nil {
		if a.resultStart < b.resultStart {
			next := a.next
			tail = appendRegion(tail, fc, a)
			a = next
		} else {
			next := b.next
			tail = appendRegion(tail, fc, b)
			b = next
		}
	}

	rest := a
	if rest == nil {
		rest = b
	}

	for rest != nil {
		next := rest.next
		tail = appendRegion(tail, fc, rest)
		rest = next
	}
}

// String renders the candidate for debug logging.
func (fc *fileCandidate) String() string {
	var sb strings.Builder

	sb.WriteString("candidate[")
	sb.WriteString(fc.path)

	if fc.regionList != nil {
		sb.WriteString(" regions:")
		sb.WriteString(fc.regionList.String())
	}

	sb.WriteString("]")

	return sb.String()
}
