package textdiff

// Edit is one region replaced between sequence A and sequence B.
// Line range [BeginA, EndA) of A was replaced by [BeginB, EndB) of B.
type Edit struct {
	BeginA int
	EndA   int
	BeginB int
	EndB   int
}

// LengthA returns the number of A-side lines the edit covers.
func (e Edit) LengthA() int {
	return e.EndA - e.BeginA
}

// LengthB returns the number of B-side lines the edit covers.
func (e Edit) LengthB() int {
	return e.EndB - e.BeginB
}

// EditList is an ordered list of non-overlapping edits, sorted by
// position in both sequences.
type EditList []Edit
