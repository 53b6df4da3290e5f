package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, cfg.TickIntervalMS)
	assert.Equal(t, 0.5, cfg.ETABlendingAlpha)
	assert.Equal(t, 28800, cfg.TimeAdjustmentWarnThresholdS)
}

func TestLoad_PartialFileKeepsRemainingDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_interval_ms: 2000\ndeparture_threshold_kn: 55\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.TickIntervalMS)
	assert.Equal(t, 55.0, cfg.DepartureThresholdKn)
	assert.Equal(t, 100.0, cfg.ArrivalRadiusM, "unspecified field should retain its default")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, int(cfg.TickInterval().Milliseconds()))
	assert.Equal(t, 5, int(cfg.ETACacheTTL().Seconds()))
	assert.Equal(t, 28800, int(cfg.TimeAdjustmentWarnThreshold().Seconds()))
}
