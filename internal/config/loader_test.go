package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bulkblame/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	defaults := config.Default()
	assert.Equal(t, defaults.RenameScore, cfg.RenameScore)
	assert.Equal(t, defaults.BreakScore, cfg.BreakScore)
	assert.Equal(t, defaults.BigFileThreshold, cfg.BigFileThreshold)
	assert.Equal(t, "histogram", cfg.Algorithm)
	assert.Equal(t, "table", cfg.Format)
	assert.True(t, cfg.Multithreading)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "rename_score: 75\nalgorithm: myers\nmultithreading: false\nfiles:\n  - a.go\n  - b.go\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.RenameScore)
	assert.Equal(t, "myers", cfg.Algorithm)
	assert.False(t, cfg.Multithreading)
	assert.Equal(t, []string{"a.go", "b.go"}, cfg.Files)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BULKBLAME_RENAME_SCORE", "42")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.RenameScore)
}
