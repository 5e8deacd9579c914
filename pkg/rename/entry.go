// Package rename detects renamed and copied files between two trees by
// exact blob identity and by content similarity.
package rename

import (
	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// ChangeType classifies a file change.
type ChangeType int

const (
	// Add is a file that exists only on the new side.
	Add ChangeType = iota
	// Delete is a file that exists only on the old side.
	Delete
	// Modify is an in-place content or mode change.
	Modify
	// Copy is a new file whose content came from an old file that is
	// already the source of a rename.
	Copy
	// Rename is a new file whose content came from a removed old file.
	Rename
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case Add:
		return "ADD"
	case Delete:
		return "DELETE"
	case Modify:
		return "MODIFY"
	case Copy:
		return "COPY"
	case Rename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// exactRenameScore is the score assigned to blob-identity matches.
const exactRenameScore = 100

// Entry is one file change considered by the rename detector.
type Entry struct {
	ChangeType ChangeType
	OldPath    string
	NewPath    string
	OldID      gitlib.Hash
	NewID      gitlib.Hash
	OldMode    gitlib.Filemode
	NewMode    gitlib.Filemode
	// Score is the similarity score of a RENAME or COPY pairing, or the
	// content score recorded when a MODIFY was broken apart.
	Score int
}

// NewAdd builds an ADD entry.
func NewAdd(path string, id gitlib.Hash, mode gitlib.Filemode) *Entry {
	return &Entry{ChangeType: Add, NewPath: path, NewID: id, NewMode: mode}
}

// NewDelete builds a DELETE entry.
func NewDelete(path string, id gitlib.Hash, mode gitlib.Filemode) *Entry {
	return &Entry{ChangeType: Delete, OldPath: path, OldID: id, OldMode: mode}
}

// NewModify builds a MODIFY entry for an in-place change.
func NewModify(path string, oldID, newID gitlib.Hash, oldMode, newMode gitlib.Filemode) *Entry {
	return &Entry{
		ChangeType: Modify,
		OldPath:    path,
		NewPath:    path,
		OldID:      oldID,
		NewID:      newID,
		OldMode:    oldMode,
		NewMode:    newMode,
	}
}

// BreakModify splits a MODIFY entry into its DELETE and ADD halves so
// both sides become rename candidates.
func BreakModify(entry *Entry) (del, add *Entry) {
	del = NewDelete(entry.OldPath, entry.OldID, entry.OldMode)
	add = NewAdd(entry.NewPath, entry.NewID, entry.NewMode)

	return del, add
}

// Pair joins a source (old side) and a destination (new side) into a
// single entry of the given type.
func Pair(changeType ChangeType, src, dst *Entry, score int) *Entry {
	return &Entry{
		ChangeType: changeType,
		OldPath:    src.OldPath,
		NewPath:    dst.NewPath,
		OldID:      src.OldID,
		NewID:      dst.NewID,
		OldMode:    src.OldMode,
		NewMode:    dst.NewMode,
		Score:      score,
	}
}

// sortName returns the path an entry sorts under: the new path, except
// for deletes which only have an old path.
func sortName(entry *Entry) string {
	if entry.ChangeType == Delete {
		return entry.OldPath
	}

	return entry.NewPath
}

// changeTypeRank orders deletes before adds before everything else, so
// a type change of one path lists its removal before its re-addition.
func changeTypeRank(changeType ChangeType) int {
	switch changeType {
	case Delete:
		return 1
	case Add:
		return 2
	case Modify, Copy, Rename:
		return 10
	default:
		return 10
	}
}
