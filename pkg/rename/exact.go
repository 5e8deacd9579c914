package rename

import (
	"context"
	"sort"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// findExactRenames pairs adds with deletes that share a blob id.
// Identity matches score 100 and never touch file content.
func (d *Detector) findExactRenames(ctx context.Context) error {
	deletedByID := groupDeletesByID(d.deleted)

	left := make([]*Entry, 0, len(d.added))
	seenIDs := make(map[gitlib.Hash]struct{}, len(d.added))
	addsByID := make(map[gitlib.Hash][]*Entry, len(d.added))

	for _, add := range d.added {
		addsByID[add.NewID] = append(addsByID[add.NewID], add)
	}

	for _, add := range d.added {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if _, seen := seenIDs[add.NewID]; seen {
			continue
		}

		seenIDs[add.NewID] = struct{}{}

		adds := addsByID[add.NewID]
		dels := deletedByID[add.NewID]

		if len(adds) == 1 {
			left = d.matchOneAdd(adds[0], dels, left)
		} else {
			left = d.matchManyAdds(adds, dels, left)
		}
	}

	d.added = left

	// The content phase is sensitive to the order of the surviving
	// deletes; sort them so results are reproducible.
	sort.SliceStable(d.deleted, func(i, j int) bool { return d.deleted[i].OldPath < d.deleted[j].OldPath })

	return nil
}

// matchOneAdd resolves a single add against the deletes sharing its
// blob id: one-to-one pairs directly, one-to-many picks the closest
// path among type-compatible deletes.
func (d *Detector) matchOneAdd(add *Entry, dels []*Entry, left []*Entry) []*Entry {
	switch {
	case len(dels) == 0:
		return append(left, add)
	case len(dels) == 1:
		del := dels[0]
		if !gitlib.SameType(del.OldMode, add.NewMode) {
			return append(left, add)
		}

		d.matchedDeletedPaths[del.OldPath] = struct{}{}
		d.entries = append(d.entries, Pair(Rename, del, add, exactRenameScore))

		return left
	default:
		best := bestPathMatch(add, dels)
		if best == nil {
			return append(left, add)
		}

		d.matchedDeletedPaths[best.OldPath] = struct{}{}
		d.entries = append(d.entries, Pair(Rename, best, add, exactRenameScore))

		return left
	}
}

// matchManyAdds resolves several adds of one blob id: the closest add
// becomes the rename, the rest become copies of the same delete. With
// several deletes as well, a name-score matrix decides greedily.
func (d *Detector) matchManyAdds(adds, dels []*Entry, left []*Entry) []*Entry {
	switch {
	case len(dels) == 0:
		return append(left, adds...)
	case len(dels) == 1:
		del := dels[0]

		best := bestPathMatch(del, adds)
		if best == nil {
			return append(left, adds...)
		}

		d.matchedDeletedPaths[del.OldPath] = struct{}{}
		d.entries = append(d.entries, Pair(Rename, del, best, exactRenameScore))

		for _, add := range adds {
			if add == best {
				continue
			}

			if gitlib.SameType(del.OldMode, add.NewMode) {
				d.entries = append(d.entries, Pair(Copy, del, add, exactRenameScore))
			} else {
				left = append(left, add)
			}
		}

		return left
	default:
		d.matchByNameMatrix(adds, dels)

		return left
	}
}

// matchByNameMatrix scores every (delete, add) pair of one blob id by
// path-name similarity and claims pairs from the best score down. The
// first claim of a delete is a rename; later claims are copies.
func (d *Detector) matchByNameMatrix(adds, dels []*Entry) {
	matrix := make([]uint64, 0, len(dels)*len(adds))

	for delIdx, del := range dels {
		for addIdx, add := range adds {
			score := nameScore(add.NewPath, del.OldPath)
			matrix = append(matrix, encode(score, delIdx, addIdx))
		}
	}

	sort.Slice(matrix, func(i, j int) bool { return matrix[i] < matrix[j] })

	claimed := make([]bool, len(adds))

	for cell := len(matrix) - 1; cell >= 0; cell-- {
		packed := matrix[cell]
		delIdx := decodeFile(uint32(packed>>bitsPerIndex) & indexMask)
		addIdx := decodeFile(uint32(packed) & indexMask)

		if claimed[addIdx] {
			continue
		}

		claimed[addIdx] = true

		del := dels[delIdx]

		changeType := Copy
		if _, seen := d.matchedDeletedPaths[del.OldPath]; !seen {
			changeType = Rename

			d.matchedDeletedPaths[del.OldPath] = struct{}{}
		}

		d.entries = append(d.entries, Pair(changeType, del, adds[addIdx], exactRenameScore))
	}
}

// bestPathMatch finds the type-compatible entry of the list whose path
// is closest to src's path, or nil when no entry is compatible.
func bestPathMatch(src *Entry, list []*Entry) *Entry {
	var best *Entry

	bestScore := -1

	for _, candidate := range list {
		if !gitlib.SameType(entryMode(candidate), entryMode(src)) {
			continue
		}

		score := nameScore(entryPath(candidate), entryPath(src))
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best
}

func entryPath(entry *Entry) string {
	if entry.ChangeType == Delete {
		return entry.OldPath
	}

	return entry.NewPath
}

func entryMode(entry *Entry) gitlib.Filemode {
	if entry.ChangeType == Delete {
		return entry.OldMode
	}

	return entry.NewMode
}

func groupDeletesByID(deleted []*Entry) map[gitlib.Hash][]*Entry {
	byID := make(map[gitlib.Hash][]*Entry, len(deleted))
	for _, del := range deleted {
		byID[del.OldID] = append(byID[del.OldID], del)
	}

	return byID
}
