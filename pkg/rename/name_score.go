package rename

import "strings"

// nameScore rates the similarity of two paths in [0, 100]. Directory
// similarity (common prefix and common suffix, each over the longer
// directory length) contributes half the score; the common file-name
// suffix contributes the other half.
func nameScore(a, b string) int {
	aDirLen := strings.LastIndexByte(a, '/') + 1
	bDirLen := strings.LastIndexByte(b, '/') + 1

	dirMin := aDirLen
	if bDirLen < dirMin {
		dirMin = bDirLen
	}

	dirMax := aDirLen
	if bDirLen > dirMax {
		dirMax = bDirLen
	}

	var dirScoreLtr, dirScoreRtl int

	if dirMax == 0 {
		dirScoreLtr = 100
		dirScoreRtl = 100
	} else {
		dirSim := 0
		for ; dirSim < dirMin; dirSim++ {
			if a[dirSim] != b[dirSim] {
				break
			}
		}

		dirScoreLtr = dirSim * 100 / dirMax

		if dirScoreLtr == 100 {
			dirScoreRtl = 100
		} else {
			for dirSim = 0; dirSim < dirMin; dirSim++ {
				if a[aDirLen-1-dirSim] != b[bDirLen-1-dirSim] {
					break
				}
			}

			dirScoreRtl = dirSim * 100 / dirMax
		}
	}

	fileMin := len(a) - aDirLen
	if len(b)-bDirLen < fileMin {
		fileMin = len(b) - bDirLen
	}

	fileMax := len(a) - aDirLen
	if len(b)-bDirLen > fileMax {
		fileMax = len(b) - bDirLen
	}

	fileSim := 0
	for ; fileSim < fileMin; fileSim++ {
		if a[len(a)-1-fileSim] != b[len(b)-1-fileSim] {
			break
		}
	}

	// Two empty file names are identical.
	fileScore := 100
	if fileMax > 0 {
		fileScore = fileSim * 100 / fileMax
	}

	return ((dirScoreLtr+dirScoreRtl)*25 + fileScore*50) / 100
}
