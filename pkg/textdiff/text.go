// Package textdiff computes ordered line-level edit lists between two
// byte sequences, with pluggable line comparators and diff algorithms.
package textdiff

import "bytes"

// Text is a byte sequence indexed by line offsets.
type Text struct {
	content    []byte
	lineStarts []int
}

// NewText indexes the given content by line. A trailing byte sequence
// without a final newline still counts as a line.
func NewText(content []byte) *Text {
	text := &Text{content: content}

	if len(content) == 0 {
		return text
	}

	text.lineStarts = append(text.lineStarts, 0)

	for i, b := range content {
		if b == '\n' && i+1 < len(content) {
			text.lineStarts = append(text.lineStarts, i+1)
		}
	}

	return text
}

// LineCount returns the number of lines in the text.
func (t *Text) LineCount() int {
	return len(t.lineStarts)
}

// Line returns the content of line i without its terminator.
func (t *Text) Line(i int) []byte {
	start := t.lineStarts[i]

	end := len(t.content)
	if i+1 < len(t.lineStarts) {
		end = t.lineStarts[i+1]
	}

	return bytes.TrimSuffix(t.content[start:end], []byte{'\n'})
}
