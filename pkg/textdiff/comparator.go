package textdiff

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrUnknownComparator is returned when a comparator name is not recognized.
var ErrUnknownComparator = errors.New("unknown line comparator")

// Comparator decides when two lines count as equal by canonicalizing
// each line to a comparison key.
type Comparator int

const (
	// CompareDefault compares lines byte for byte.
	CompareDefault Comparator = iota
	// CompareIgnoreAllSpace ignores every space and tab character.
	CompareIgnoreAllSpace
	// CompareIgnoreTrailingSpace ignores whitespace at the end of lines.
	CompareIgnoreTrailingSpace
)

// ParseComparator resolves a configuration name to a comparator.
func ParseComparator(name string) (Comparator, error) {
	switch name {
	case "", "default":
		return CompareDefault, nil
	case "ignore-all-space":
		return CompareIgnoreAllSpace, nil
	case "ignore-trailing-space":
		return CompareIgnoreTrailingSpace, nil
	default:
		return CompareDefault, fmt.Errorf("%w: %q", ErrUnknownComparator, name)
	}
}

// key canonicalizes a line for equality comparison.
func (c Comparator) key(line []byte) string {
	switch c {
	case CompareIgnoreAllSpace:
		stripped := make([]byte, 0, len(line))

		for _, b := range line {
			if b != ' ' && b != '\t' {
				stripped = append(stripped, b)
			}
		}

		return string(stripped)
	case CompareIgnoreTrailingSpace:
		return string(bytes.TrimRight(line, " \t\r"))
	case CompareDefault:
		return string(line)
	default:
		return string(line)
	}
}

// lineKeys canonicalizes every line of a text.
func lineKeys(cmp Comparator, text *Text) []string {
	keys := make([]string, text.LineCount())
	for i := range keys {
		keys[i] = cmp.key(text.Line(i))
	}

	return keys
}
