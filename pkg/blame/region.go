// Package blame computes line-level provenance for many files of a git
// repository in a single walk of the commit graph.
package blame

import (
	"strconv"
	"strings"
)

// region is one contiguous range of result lines a candidate is still
// responsible for. Regions form a singly-linked list kept sorted by
// resultStart, which makes merge-joining against a sorted edit list
// trivial.
type region struct {
	next *region
	// resultStart is the first line of this region in the final result
	// file being blamed.
	resultStart int
	// sourceStart is the first line of this region inside the candidate
	// blob that currently owns it.
	sourceStart int
	// length is the number of lines the region spans, always >= 1.
	length int
}

// splitFirst returns the head portion of the region at a new source
// position, leaving the receiver untouched.
func (r *region) splitFirst(newSourceStart, newLength int) *region {
	return &region{resultStart: r.resultStart, sourceStart: newSourceStart, length: newLength}
}

// slideAndShrink drops the first d lines of the region.
func (r *region) slideAndShrink(d int) {
	r.resultStart += d
	r.sourceStart += d
	r.length -= d
}

// end returns the exclusive result end of the region.
func (r *region) end() int {
	return r.resultStart + r.length
}

// String renders the region list for debug logging.
func (r *region) String() string {
	var sb strings.Builder

	for cursor := r; cursor != nil; cursor = cursor.next {
		if cursor != r {
			sb.WriteByte(',')
		}

		sb.WriteString(strconv.Itoa(cursor.resultStart))
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(cursor.end()))
	}

	return sb.String()
}

// appendRegion links node onto owner's region list after tail and
// returns the new tail. When node continues tail exactly in both the
// result and the source coordinates the two are coalesced, so runs of
// untouched lines spanning many no-op edits stay one region.
func appendRegion(tail *region, owner *fileCandidate, node *region) *region {
	if tail == nil {
		owner.regionList = node
		node.next = nil

		return node
	}

	if tail.resultStart+tail.length == node.resultStart &&
		tail.sourceStart+tail.length == node.sourceStart {
		tail.length += node.length

		return tail
	}

	tail.next = node
	node.next = nil

	return node
}
