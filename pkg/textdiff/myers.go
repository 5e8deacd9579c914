package textdiff

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Myers diffs two texts with the Myers algorithm from diffmatchpatch,
// mapping each distinct line to a rune so the character diff operates
// on whole lines.
type Myers struct{}

// Diff implements Algorithm.
func (Myers) Diff(cmp Comparator, a, b *Text) EditList {
	aKeys := lineKeys(cmp, a)
	bKeys := lineKeys(cmp, b)

	return myersKeys(aKeys, bKeys, 0, 0)
}

// myersKeys diffs two canonicalized key slices, offsetting the reported
// edits by the given origins. Shared with the histogram fallback.
func myersKeys(aKeys, bKeys []string, aOrigin, bOrigin int) EditList {
	interner := map[string]rune{}

	src := internRunes(aKeys, interner)
	dst := internRunes(bKeys, interner)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(src, dst, false)

	return editsFromDiffs(diffs, aOrigin, bOrigin)
}

// internRunes maps each distinct line key to a unique rune.
func internRunes(keys []string, interner map[string]rune) []rune {
	runes := make([]rune, len(keys))

	for i, key := range keys {
		id, ok := interner[key]
		if !ok {
			// Start at 1 so no line maps to the NUL rune.
			id = rune(len(interner) + 1)
			interner[key] = id
		}

		runes[i] = id
	}

	return runes
}

// editsFromDiffs folds a diffmatchpatch op sequence into an edit list,
// merging adjacent deletions and insertions into single replace edits.
func editsFromDiffs(diffs []diffmatchpatch.Diff, aOrigin, bOrigin int) EditList {
	var (
		edits      EditList
		pending    Edit
		hasPending bool
	)

	aPos, bPos := aOrigin, bOrigin

	flush := func() {
		if hasPending {
			pending.EndA = aPos
			pending.EndB = bPos
			edits = append(edits, pending)
			hasPending = false
		}
	}

	for _, diff := range diffs {
		lines := len([]rune(diff.Text))

		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			flush()

			aPos += lines
			bPos += lines
		case diffmatchpatch.DiffDelete:
			if !hasPending {
				pending = Edit{BeginA: aPos, BeginB: bPos}
				hasPending = true
			}

			aPos += lines
		case diffmatchpatch.DiffInsert:
			if !hasPending {
				pending = Edit{BeginA: aPos, BeginB: bPos}
				hasPending = true
			}

			bPos += lines
		}
	}

	flush()

	return edits
}
