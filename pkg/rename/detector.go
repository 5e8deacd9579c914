package rename

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// Default thresholds of the detector.
const (
	// DefaultRenameScore is the minimum similarity for a content rename.
	DefaultRenameScore = 60
	// DefaultBreakScore disables breaking of weak modifications.
	DefaultBreakScore = -1
	// DefaultRenameLimit places no bound on content rename detection.
	DefaultRenameLimit = 0
	// DefaultBigFileThreshold exempts very large files from similarity
	// hashing (50 MiB).
	DefaultBigFileThreshold = 50 * 1024 * 1024
)

// ErrAlreadyComputed is returned when entries are added after Compute.
var ErrAlreadyComputed = errors.New("rename detection already computed")

// Detector resolves renames and copies in a set of tree changes.
// It matches exact renames by blob identity first, then delegates the
// remainder to content similarity scoring.
type Detector struct {
	reader ContentSource

	entries []*Entry
	deleted []*Entry
	added   []*Entry
	// matchedDeletedPaths holds old paths already claimed by a rename;
	// re-matching one yields a COPY instead.
	matchedDeletedPaths map[string]struct{}
	done                bool

	// RenameScore is the minimum similarity score, in [0, 100], for an
	// add/delete pair to count as a rename.
	RenameScore int
	// BreakScore splits MODIFY entries scoring below it into an
	// add/delete pair; values <= 0 disable breaking.
	BreakScore int
	// RenameLimit bounds the larger of the add and delete lists for
	// content rename detection. 0 is unlimited; negative skips content
	// renames entirely.
	RenameLimit int
	// BigFileThreshold exempts files larger than this many bytes.
	BigFileThreshold int64
	// SkipBinaryFiles excludes binary blobs from content renames.
	SkipBinaryFiles bool

	overLimit     bool
	tableOverflow bool
}

// NewDetector creates a detector with default thresholds.
func NewDetector(reader ContentSource) *Detector {
	detector := &Detector{
		reader:           reader,
		RenameScore:      DefaultRenameScore,
		BreakScore:       DefaultBreakScore,
		RenameLimit:      DefaultRenameLimit,
		BigFileThreshold: DefaultBigFileThreshold,
	}
	detector.Reset()

	return detector
}

// Reset clears the detector for another detection pass.
func (d *Detector) Reset() {
	d.entries = nil
	d.deleted = nil
	d.added = nil
	d.matchedDeletedPaths = make(map[string]struct{})
	d.done = false
	d.overLimit = false
	d.tableOverflow = false
}

// OverRenameLimit reports whether content rename detection was skipped
// because the candidate lists exceeded the rename limit.
func (d *Detector) OverRenameLimit() bool {
	return d.overLimit
}

// TableOverflow reports whether any similarity index overflowed, making
// some files incomparable.
func (d *Detector) TableOverflow() bool {
	return d.tableOverflow
}

// AddAll queues entries for rename detection. A MODIFY whose sides have
// different type bits is split immediately: it can never rename onto
// itself, but each half may match another file.
func (d *Detector) AddAll(entries []*Entry) error {
	if d.done {
		return ErrAlreadyComputed
	}

	for _, entry := range entries {
		switch entry.ChangeType {
		case Add:
			d.added = append(d.added, entry)
		case Delete:
			d.deleted = append(d.deleted, entry)
		case Modify:
			if gitlib.SameType(entry.OldMode, entry.NewMode) {
				d.entries = append(d.entries, entry)
			} else {
				del, add := BreakModify(entry)
				d.deleted = append(d.deleted, del)
				d.added = append(d.added, add)
			}
		case Copy, Rename:
			d.entries = append(d.entries, entry)
		}
	}

	return nil
}

// Compute runs the detection phases and returns the final entry list,
// sorted by path with deletes ahead of adds.
func (d *Detector) Compute(ctx context.Context) ([]*Entry, error) {
	if d.done {
		return d.entries, nil
	}

	d.done = true

	if d.BreakScore > 0 {
		breakErr := d.breakModifies(ctx)
		if breakErr != nil {
			return nil, breakErr
		}
	}

	if len(d.added) > 0 && len(d.deleted) > 0 {
		exactErr := d.findExactRenames(ctx)
		if exactErr != nil {
			return nil, exactErr
		}
	}

	if len(d.added) > 0 && len(d.deleted) > 0 {
		contentErr := d.findContentRenames(ctx)
		if contentErr != nil {
			return nil, contentErr
		}
	}

	remaining := d.deleted[:0]

	for _, del := range d.deleted {
		if _, matched := d.matchedDeletedPaths[del.OldPath]; !matched {
			remaining = append(remaining, del)
		}
	}

	d.deleted = remaining
	d.matchedDeletedPaths = nil

	if d.BreakScore > 0 && len(d.added) > 0 && len(d.deleted) > 0 {
		d.rejoinModifies()
	}

	d.entries = append(d.entries, d.added...)
	d.added = nil
	d.entries = append(d.entries, d.deleted...)
	d.deleted = nil

	sort.SliceStable(d.entries, func(i, j int) bool {
		nameI, nameJ := sortName(d.entries[i]), sortName(d.entries[j])
		if nameI != nameJ {
			return nameI < nameJ
		}

		return changeTypeRank(d.entries[i].ChangeType) < changeTypeRank(d.entries[j].ChangeType)
	})

	return d.entries, nil
}

// breakModifies splits weakly modified files into add/delete pairs so
// both sides re-enter rename matching.
func (d *Detector) breakModifies(ctx context.Context) error {
	kept := make([]*Entry, 0, len(d.entries))

	for _, entry := range d.entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if entry.ChangeType != Modify {
			kept = append(kept, entry)

			continue
		}

		score, scoreErr := d.modifyScore(entry)
		if scoreErr != nil {
			return scoreErr
		}

		if score < d.BreakScore {
			del, add := BreakModify(entry)
			del.Score = score
			d.deleted = append(d.deleted, del)
			d.added = append(d.added, add)
		} else {
			kept = append(kept, entry)
		}
	}

	d.entries = kept

	return nil
}

// modifyScore rates the similarity of the two sides of a MODIFY.
// An overflowing index returns just above the break score: the pair is
// not similar, but not dissimilar enough to break either.
func (d *Detector) modifyScore(entry *Entry) (int, error) {
	oldData, err := d.reader.Open(entry.OldID, entry.OldPath)
	if err != nil {
		return 0, fmt.Errorf("open modify old side %s: %w", entry.OldPath, err)
	}

	newData, err := d.reader.Open(entry.NewID, entry.NewPath)
	if err != nil {
		return 0, fmt.Errorf("open modify new side %s: %w", entry.NewPath, err)
	}

	oldIndex := NewSimilarityIndex()

	hashErr := oldIndex.HashContent(oldData)
	if hashErr != nil {
		d.tableOverflow = true

		return d.BreakScore + 1, nil
	}

	newIndex := NewSimilarityIndex()

	hashErr = newIndex.HashContent(newData)
	if hashErr != nil {
		d.tableOverflow = true

		return d.BreakScore + 1, nil
	}

	return oldIndex.Score(newIndex, 100), nil
}

// rejoinModifies re-unifies broken halves that did not pair up with any
// other file. The name map is last-write-wins per new path.
func (d *Detector) rejoinModifies() {
	nameMap := make(map[string]*Entry, len(d.deleted))
	for _, src := range d.deleted {
		nameMap[src.OldPath] = src
	}

	newAdded := make([]*Entry, 0, len(d.added))

	for _, dst := range d.added {
		src, ok := nameMap[dst.NewPath]
		if ok && gitlib.SameType(src.OldMode, dst.NewMode) {
			delete(nameMap, dst.NewPath)
			d.entries = append(d.entries, Pair(Modify, src, dst, src.Score))
		} else {
			newAdded = append(newAdded, dst)
		}
	}

	d.added = newAdded
	d.deleted = make([]*Entry, 0, len(nameMap))

	for _, src := range nameMap {
		d.deleted = append(d.deleted, src)
	}

	sort.Slice(d.deleted, func(i, j int) bool { return d.deleted[i].OldPath < d.deleted[j].OldPath })
}

// findContentRenames pairs the remaining adds and deletes by content
// similarity, unless the candidate lists exceed the rename limit.
func (d *Detector) findContentRenames(ctx context.Context) error {
	count := len(d.added)
	if len(d.deleted) > count {
		count = len(d.deleted)
	}

	if d.RenameLimit < 0 {
		// Exact-only configuration; not a degradation.
		return nil
	}

	if d.RenameLimit != 0 && count > d.RenameLimit {
		d.overLimit = true

		return nil
	}

	detector := newSimilarityDetector(d.reader, d.deleted, d.added, d.matchedDeletedPaths)
	detector.renameScore = d.RenameScore
	detector.bigFileThreshold = d.BigFileThreshold
	detector.skipBinaryFiles = d.SkipBinaryFiles

	computeErr := detector.compute(ctx)
	if computeErr != nil {
		return computeErr
	}

	d.tableOverflow = d.tableOverflow || detector.tableOverflow
	d.added = detector.leftOverDestinations()
	d.entries = append(d.entries, detector.matches()...)

	return nil
}
