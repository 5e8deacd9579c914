package textdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(parts ...string) []byte {
	var out []byte
	for _, part := range parts {
		out = append(out, part...)
		out = append(out, '\n')
	}

	return out
}

func TestTextLineIndexing(t *testing.T) {
	t.Parallel()

	text := NewText(lines("one", "two", "three"))

	require.Equal(t, 3, text.LineCount())
	assert.Equal(t, "one", string(text.Line(0)))
	assert.Equal(t, "three", string(text.Line(2)))
}

func TestTextWithoutTrailingNewline(t *testing.T) {
	t.Parallel()

	text := NewText([]byte("a\nb"))

	require.Equal(t, 2, text.LineCount())
	assert.Equal(t, "b", string(text.Line(1)))
}

func TestTextEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, NewText(nil).LineCount())
}

func algorithms() map[string]Algorithm {
	return map[string]Algorithm{
		"histogram": NewHistogram(),
		"myers":     Myers{},
	}
}

func TestDiffIdenticalTextsHaveNoEdits(t *testing.T) {
	t.Parallel()

	a := NewText(lines("x", "y", "z"))
	b := NewText(lines("x", "y", "z"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareDefault, a, b)
		assert.Empty(t, edits, name)
	}
}

func TestDiffSingleLineChangedAtEnd(t *testing.T) {
	t.Parallel()

	a := NewText(lines("l1", "l2", "l3"))
	b := NewText(lines("l1", "l2", "changed"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareDefault, a, b)
		require.Len(t, edits, 1, name)
		assert.Equal(t, Edit{BeginA: 2, EndA: 3, BeginB: 2, EndB: 3}, edits[0], name)
	}
}

func TestDiffInsertionInMiddle(t *testing.T) {
	t.Parallel()

	a := NewText(lines("a", "b"))
	b := NewText(lines("a", "new", "b"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareDefault, a, b)
		require.Len(t, edits, 1, name)
		assert.Equal(t, Edit{BeginA: 1, EndA: 1, BeginB: 1, EndB: 2}, edits[0], name)
	}
}

func TestDiffDeletionAtStart(t *testing.T) {
	t.Parallel()

	a := NewText(lines("gone", "kept1", "kept2"))
	b := NewText(lines("kept1", "kept2"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareDefault, a, b)
		require.Len(t, edits, 1, name)
		assert.Equal(t, Edit{BeginA: 0, EndA: 1, BeginB: 0, EndB: 0}, edits[0], name)
	}
}

func TestDiffFullReplacement(t *testing.T) {
	t.Parallel()

	a := NewText(lines("old1", "old2"))
	b := NewText(lines("new1", "new2", "new3"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareDefault, a, b)
		require.Len(t, edits, 1, name)
		assert.Equal(t, Edit{BeginA: 0, EndA: 2, BeginB: 0, EndB: 3}, edits[0], name)
	}
}

func TestDiffTwoSeparateEdits(t *testing.T) {
	t.Parallel()

	a := NewText(lines("a", "b", "c", "d", "e"))
	b := NewText(lines("a", "B", "c", "d", "E"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareDefault, a, b)
		require.Len(t, edits, 2, name)
		assert.Equal(t, Edit{BeginA: 1, EndA: 2, BeginB: 1, EndB: 2}, edits[0], name)
		assert.Equal(t, Edit{BeginA: 4, EndA: 5, BeginB: 4, EndB: 5}, edits[1], name)
	}
}

func TestIgnoreAllSpaceComparatorSeesNoEdits(t *testing.T) {
	t.Parallel()

	a := NewText([]byte("func main() {\n\treturn\n}\n"))
	b := NewText([]byte("func main(){\n\treturn\n}\n"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareIgnoreAllSpace, a, b)
		assert.Empty(t, edits, name)
	}
}

func TestIgnoreTrailingSpaceComparator(t *testing.T) {
	t.Parallel()

	a := NewText([]byte("line\nother\n"))
	b := NewText([]byte("line   \nother\t\n"))

	for name, algorithm := range algorithms() {
		edits := algorithm.Diff(CompareIgnoreTrailingSpace, a, b)
		assert.Empty(t, edits, name)
	}
}

func TestParseComparator(t *testing.T) {
	t.Parallel()

	cmp, err := ParseComparator("")
	require.NoError(t, err)
	assert.Equal(t, CompareDefault, cmp)

	_, err = ParseComparator("bogus")
	require.ErrorIs(t, err, ErrUnknownComparator)
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	algorithm, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.IsType(t, &Histogram{}, algorithm)

	algorithm, err = ParseAlgorithm("myers")
	require.NoError(t, err)
	assert.IsType(t, Myers{}, algorithm)

	_, err = ParseAlgorithm("patience")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestHistogramRepeatedLinesStillAnchor(t *testing.T) {
	t.Parallel()

	// Brace-only lines repeat; the unique middle lines anchor the split.
	a := NewText(lines("{", "alpha", "}", "{", "beta", "}"))
	b := NewText(lines("{", "alpha", "}", "{", "gamma", "}"))

	edits := NewHistogram().Diff(CompareDefault, a, b)
	require.Len(t, edits, 1)
	assert.Equal(t, Edit{BeginA: 4, EndA: 5, BeginB: 4, EndB: 5}, edits[0])
}
