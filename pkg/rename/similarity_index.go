package rename

import (
	"errors"
	"sort"
)

const (
	// shingleSize caps how many leading bytes of a line feed its hash.
	shingleSize = 64
	// keyShift positions the line hash in the upper half of a packed entry.
	keyShift = 32
	// countMask selects the byte count of a packed entry.
	countMask = (uint64(1) << keyShift) - 1
	// maxIndexEntries bounds the number of distinct line hashes one
	// index may hold before it is declared full.
	maxIndexEntries = 1 << 20
	// binaryProbeSize is how many leading bytes are scanned for NUL.
	binaryProbeSize = 8192
)

// ErrTableFull signals that a blob has too many distinct lines to
// fingerprint. Callers must treat the blob as not comparable.
var ErrTableFull = errors.New("similarity index table is full")

// SimilarityIndex fingerprints a blob for content similarity scoring.
// Each line contributes a (hash, byte count) pair; the packed table is
// sorted so two indexes can be merge-joined.
type SimilarityIndex struct {
	// hashedBytes is the total number of bytes folded into the index.
	hashedBytes uint64
	// packed holds (hash << 32 | count) entries sorted ascending.
	packed []uint64
}

// NewSimilarityIndex creates an empty index.
func NewSimilarityIndex() *SimilarityIndex {
	return &SimilarityIndex{}
}

// HashContent folds a blob's lines into the index.
func (s *SimilarityIndex) HashContent(data []byte) error {
	counts := make(map[uint32]uint64)

	pos := 0
	for pos < len(data) {
		end := pos

		for end < len(data) && data[end] != '\n' {
			end++
		}

		if end < len(data) {
			end++ // include the terminator in the byte count
		}

		hashEnd := pos + shingleSize
		if hashEnd > end {
			hashEnd = end
		}

		key := hashShingle(data[pos:hashEnd])

		counts[key] += uint64(end - pos)
		if counts[key] > countMask {
			return ErrTableFull
		}

		if len(counts) > maxIndexEntries {
			return ErrTableFull
		}

		pos = end
	}

	s.hashedBytes = uint64(len(data))
	s.packed = make([]uint64, 0, len(counts))

	for key, count := range counts {
		s.packed = append(s.packed, uint64(key)<<keyShift|count)
	}

	sort.Slice(s.packed, func(i, j int) bool { return s.packed[i] < s.packed[j] })

	return nil
}

// Score rates the similarity of two indexes in [0, scale].
// Identical content scores the full scale; disjoint content scores 0.
func (s *SimilarityIndex) Score(other *SimilarityIndex, scale int) int {
	maxSize := s.hashedBytes
	if other.hashedBytes > maxSize {
		maxSize = other.hashedBytes
	}

	if maxSize == 0 {
		return scale
	}

	shared := s.common(other)
	if shared > maxSize {
		shared = maxSize
	}

	return int(shared * uint64(scale) / maxSize)
}

// common sums the overlapping byte counts of hashes present in both tables.
func (s *SimilarityIndex) common(other *SimilarityIndex) uint64 {
	var total uint64

	i, j := 0, 0
	for i < len(s.packed) && j < len(other.packed) {
		keyA := s.packed[i] >> keyShift
		keyB := other.packed[j] >> keyShift

		switch {
		case keyA < keyB:
			i++
		case keyA > keyB:
			j++
		default:
			countA := s.packed[i] & countMask
			countB := other.packed[j] & countMask

			if countA < countB {
				total += countA
			} else {
				total += countB
			}

			i++
			j++
		}
	}

	return total
}

// hashShingle hashes the leading bytes of one line.
func hashShingle(data []byte) uint32 {
	hash := uint32(5381)
	for _, b := range data {
		hash = (hash << 5) + hash + uint32(b)
	}

	return hash
}

// IsBinary reports whether the blob looks binary: a NUL byte within the
// first probe block classifies it.
func IsBinary(data []byte) bool {
	probe := data
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}

	for _, b := range probe {
		if b == 0 {
			return true
		}
	}

	return false
}
