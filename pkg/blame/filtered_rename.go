package blame

import (
	"context"

	"github.com/Sumatoshi-tech/bulkblame/pkg/rename"
)

// FilteredRenameDetector runs rename detection restricted to additions
// whose new path is being blamed: origins of other adds are irrelevant
// to the walk. Degradation flags accumulate across runs.
type FilteredRenameDetector struct {
	detector *rename.Detector

	overLimit     bool
	tableOverflow bool
}

// NewFilteredRenameDetector wraps a configured rename detector.
func NewFilteredRenameDetector(detector *rename.Detector) *FilteredRenameDetector {
	return &FilteredRenameDetector{detector: detector}
}

// DetectRenames resolves renames and copies among the changes, keeping
// only ADD candidates that match one of the blamed paths.
func (f *FilteredRenameDetector) DetectRenames(
	ctx context.Context,
	changes []*rename.Entry,
	paths map[string]struct{},
) ([]*rename.Entry, error) {
	filtered := make([]*rename.Entry, 0, len(changes))

	for _, change := range changes {
		if change.ChangeType == rename.Add {
			if _, wanted := paths[change.NewPath]; !wanted {
				continue
			}
		}

		filtered = append(filtered, change)
	}

	f.detector.Reset()

	addErr := f.detector.AddAll(filtered)
	if addErr != nil {
		return nil, addErr
	}

	out, err := f.detector.Compute(ctx)
	if err != nil {
		return nil, err
	}

	f.overLimit = f.overLimit || f.detector.OverRenameLimit()
	f.tableOverflow = f.tableOverflow || f.detector.TableOverflow()

	return out, nil
}

// OverRenameLimit reports whether any run skipped content renames.
func (f *FilteredRenameDetector) OverRenameLimit() bool {
	return f.overLimit
}

// TableOverflow reports whether any similarity index overflowed.
func (f *FilteredRenameDetector) TableOverflow() bool {
	return f.tableOverflow
}
