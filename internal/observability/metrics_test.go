package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bulkblame/internal/observability"
)

func TestWalkMetricsGather(t *testing.T) {
	t.Parallel()

	metrics, err := observability.NewWalkMetrics()
	require.NoError(t, err)

	metrics.CommitsProcessed.Inc()
	metrics.CommitsProcessed.Inc()
	metrics.FilesBlamed.Set(3)
	metrics.LinesAttributed.Set(120)

	samples, err := metrics.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, sample := range samples {
		byName[sample.Name] = sample.Value
	}

	assert.InDelta(t, 2, byName["bulkblame_commits_processed_total"], 0.001)
	assert.InDelta(t, 3, byName["bulkblame_files_blamed"], 0.001)
	assert.InDelta(t, 120, byName["bulkblame_lines_attributed"], 0.001)
}
