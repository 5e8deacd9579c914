package rename

import (
	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// ContentSource supplies blob sizes and contents to the similarity
// scoring phases. Implementations are not required to be thread safe;
// the detector reads from a single goroutine.
type ContentSource interface {
	// Size returns the byte size of a blob. A missing object reports
	// size 0 so the size prefilter can discard the pair cheaply.
	Size(id gitlib.Hash, path string) (int64, error)
	// Open returns the full content of a blob. Failing to open an
	// object that passed the prefilter is fatal.
	Open(id gitlib.Hash, path string) ([]byte, error)
}
