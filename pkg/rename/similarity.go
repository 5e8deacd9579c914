package rename

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

const (
	// bitsPerIndex is the width of one list index inside a packed
	// score-matrix cell, bounding either side at 2^28 entries.
	bitsPerIndex = 28
	// indexMask selects one encoded index.
	indexMask = (1 << bitsPerIndex) - 1
	// scoreShift positions the pair score above both indexes.
	scoreShift = 2 * bitsPerIndex
	// maxPairScore keeps the packed cell positive.
	maxPairScore = 127
	// contentScoreScale is the scale similarity scores are computed at
	// before being folded into the final [0, 100] pair score.
	contentScoreScale = 10000
	// contentWeight and nameWeight blend content and path-name
	// similarity into the final score.
	contentWeight = 99
	nameWeight    = 1
)

// ErrListsTooLarge is returned when either side exceeds the index
// encoding capacity of the score matrix.
var ErrListsTooLarge = errors.New("rename candidate list exceeds matrix capacity")

// similarityDetector pairs destination entries (adds) with source
// entries (deletes) by content similarity.
type similarityDetector struct {
	reader ContentSource
	srcs   []*Entry
	dsts   []*Entry
	// matchedSrcPaths are old paths already claimed by a rename; a
	// second claim of the same source becomes a copy. Shared with and
	// updated for the caller.
	matchedSrcPaths map[string]struct{}

	renameScore      int
	bigFileThreshold int64
	skipBinaryFiles  bool

	// matrix holds packed (score, srcIdx, dstIdx) cells; indexes are
	// stored inverted so earlier tree names win score ties.
	matrix        []uint64
	out           []*Entry
	tableOverflow bool
}

func newSimilarityDetector(reader ContentSource, srcs, dsts []*Entry, matchedSrcPaths map[string]struct{}) *similarityDetector {
	return &similarityDetector{
		reader:          reader,
		srcs:            srcs,
		dsts:            dsts,
		matchedSrcPaths: matchedSrcPaths,
	}
}

// compute scores every surviving pair and greedily claims matches from
// the highest score down.
func (d *similarityDetector) compute(ctx context.Context) error {
	if len(d.srcs) > indexMask || len(d.dsts) > indexMask {
		return ErrListsTooLarge
	}

	filled, err := d.buildMatrix(ctx)
	if err != nil {
		return err
	}

	d.out = make([]*Entry, 0, min(filled, len(d.dsts)))

	for cell := filled - 1; cell >= 0; cell-- {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		packed := d.matrix[cell]
		srcIdx := decodeFile(uint32(packed>>bitsPerIndex) & indexMask)
		dstIdx := decodeFile(uint32(packed) & indexMask)

		src := d.srcs[srcIdx]

		dst := d.dsts[dstIdx]
		if dst == nil {
			continue // destination already claimed
		}

		changeType := Copy
		if _, seen := d.matchedSrcPaths[src.OldPath]; !seen {
			changeType = Rename

			d.matchedSrcPaths[src.OldPath] = struct{}{}
		}

		d.out = append(d.out, Pair(changeType, src, dst, int(packed>>scoreShift)))
		d.dsts[dstIdx] = nil
	}

	d.dsts = compactEntries(d.dsts)

	return nil
}

func (d *similarityDetector) matches() []*Entry {
	return d.out
}

func (d *similarityDetector) leftOverDestinations() []*Entry {
	return d.dsts
}

// buildMatrix scores every (src, dst) pair that survives the prefilters
// and returns how many cells were filled, sorted ascending.
func (d *similarityDetector) buildMatrix(ctx context.Context) (int, error) {
	d.matrix = make([]uint64, len(d.srcs)*len(d.dsts))

	srcSizes := make([]int64, len(d.srcs))
	dstSizes := make([]int64, len(d.dsts))
	dstTooLarge := make([]bool, len(d.dsts))

	filled := 0

source:
	for srcIdx, src := range d.srcs {
		if !src.OldMode.IsRegular() {
			continue
		}

		var srcIndex *SimilarityIndex

		for dstIdx, dst := range d.dsts {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}

			if !dst.NewMode.IsRegular() || !gitlib.SameType(src.OldMode, dst.NewMode) || dstTooLarge[dstIdx] {
				continue
			}

			if !d.sizesWithinScore(src, dst, srcSizes, dstSizes, srcIdx, dstIdx) {
				continue
			}

			if srcIndex == nil {
				var (
					ok      bool
					hashErr error
				)

				srcIndex, ok, hashErr = d.hashSource(src)
				if hashErr != nil {
					return 0, hashErr
				}

				if !ok {
					continue source
				}
			}

			dstIndex, ok, hashErr := d.hashDestination(dst, dstTooLarge, dstIdx)
			if hashErr != nil {
				return 0, hashErr
			}

			if !ok {
				continue
			}

			score := d.pairScore(srcIndex, dstIndex, src, dst)
			if score < d.renameScore {
				continue
			}

			d.matrix[filled] = encode(score, srcIdx, dstIdx)
			filled++
		}
	}

	sort.Slice(d.matrix[:filled], func(i, j int) bool { return d.matrix[i] < d.matrix[j] })

	return filled, nil
}

// sizesWithinScore applies the cheap size prefilter: files whose sizes
// alone cannot reach the rename score, or that exceed the big-file
// threshold, are discarded without hashing.
func (d *similarityDetector) sizesWithinScore(src, dst *Entry, srcSizes, dstSizes []int64, srcIdx, dstIdx int) bool {
	srcSize := srcSizes[srcIdx]
	if srcSize == 0 {
		srcSize = d.sizeOf(src.OldID, src.OldPath) + 1
		srcSizes[srcIdx] = srcSize
	}

	dstSize := dstSizes[dstIdx]
	if dstSize == 0 {
		dstSize = d.sizeOf(dst.NewID, dst.NewPath) + 1
		dstSizes[dstIdx] = dstSize
	}

	maxSize, minSize := srcSize, dstSize
	if minSize > maxSize {
		maxSize, minSize = minSize, maxSize
	}

	if minSize*100/maxSize < int64(d.renameScore) {
		return false
	}

	return maxSize <= d.bigFileThreshold
}

// sizeOf reports a blob's size, mapping missing objects to zero so the
// prefilter can drop the pair.
func (d *similarityDetector) sizeOf(id gitlib.Hash, path string) int64 {
	size, err := d.reader.Size(id, path)
	if err != nil {
		return 0
	}

	return size
}

// hashSource fingerprints the source side of a pair. A table overflow
// disqualifies the source entirely (the caller skips all destinations
// for it); an unreadable blob that passed the prefilter is fatal.
func (d *similarityDetector) hashSource(src *Entry) (*SimilarityIndex, bool, error) {
	data, err := d.reader.Open(src.OldID, src.OldPath)
	if err != nil {
		return nil, false, fmt.Errorf("open rename source %s: %w", src.OldPath, err)
	}

	if d.skipBinaryFiles && IsBinary(data) {
		return nil, false, nil
	}

	index := NewSimilarityIndex()

	hashErr := index.HashContent(data)
	if hashErr != nil {
		d.tableOverflow = true

		return nil, false, nil
	}

	return index, true, nil
}

// hashDestination fingerprints the destination side. A table overflow
// marks the destination so later sources skip it without rehashing.
func (d *similarityDetector) hashDestination(dst *Entry, dstTooLarge []bool, dstIdx int) (*SimilarityIndex, bool, error) {
	data, err := d.reader.Open(dst.NewID, dst.NewPath)
	if err != nil {
		return nil, false, fmt.Errorf("open rename destination %s: %w", dst.NewPath, err)
	}

	if d.skipBinaryFiles && IsBinary(data) {
		return nil, false, nil
	}

	index := NewSimilarityIndex()

	hashErr := index.HashContent(data)
	if hashErr != nil {
		dstTooLarge[dstIdx] = true
		d.tableOverflow = true

		return nil, false, nil
	}

	return index, true, nil
}

// pairScore blends content similarity with path-name similarity.
func (d *similarityDetector) pairScore(srcIndex, dstIndex *SimilarityIndex, src, dst *Entry) int {
	contentScore := srcIndex.Score(dstIndex, contentScoreScale)
	pathScore := nameScore(src.OldPath, dst.NewPath) * 100

	score := (contentScore*contentWeight + pathScore*nameWeight) / contentScoreScale
	if score > maxPairScore {
		score = maxPairScore
	}

	return score
}

func compactEntries(in []*Entry) []*Entry {
	out := make([]*Entry, 0, len(in))

	for _, entry := range in {
		if entry != nil {
			out = append(out, entry)
		}
	}

	return out
}

func encode(score, srcIdx, dstIdx int) uint64 {
	return uint64(score)<<scoreShift |
		uint64(encodeFile(srcIdx))<<bitsPerIndex |
		uint64(encodeFile(dstIdx))
}

// encodeFile inverts an index so smaller indices sort later in the
// matrix, breaking score ties in favor of earlier tree names.
func encodeFile(idx int) uint32 {
	return uint32(indexMask - idx)
}

func decodeFile(encoded uint32) int {
	return indexMask - int(encoded)
}
