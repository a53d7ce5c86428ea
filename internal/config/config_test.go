package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Universe.MinPrice)
	assert.Equal(t, 100.0, cfg.Universe.MaxPrice)
	assert.Equal(t, 30.0, cfg.Weights.VolumeMomentum)
	assert.Equal(t, 45.0, cfg.Explosive.HardFloor)
	assert.Equal(t, 3, cfg.Explosive.TargetMin)
	assert.Equal(t, 5, cfg.Explosive.TargetMax)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("universe:\n  min_price: 2.5\n  max_price: 50\nexplosive:\n  target_min: 4\n  target_max: 8\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Universe.MinPrice)
	assert.Equal(t, 50.0, cfg.Universe.MaxPrice)
	assert.Equal(t, 4, cfg.Explosive.TargetMin)
	assert.Equal(t, 8, cfg.Explosive.TargetMax)
	// untouched sections keep defaults
	assert.Equal(t, int64(500000), cfg.Universe.MinVolume)
}

func TestLoad_InvalidBandIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("universe:\n  min_price: 10\n  max_price: 5\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
