package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigRequiresDataDirUnlessInMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = ""
	require.Error(t, cfg.Validate())

	cfg.Storage.InMemory = true
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("RESONANTDB_DATA_DIR", "/tmp/resonantdb-test")
	t.Setenv("RESONANTDB_HOT_CAPACITY", "500")
	t.Setenv("RESONANTDB_COHERENCE_SAMPLE_SIZE", "32")
	t.Setenv("RESONANTDB_DYNAMICS_TICK_INTERVAL", "5s")
	t.Setenv("RESONANTDB_MAINTENANCE_ENABLED", "false")

	cfg := LoadFromEnv()
	assert.Equal(t, "/tmp/resonantdb-test", cfg.Storage.DataDir)
	assert.Equal(t, 500, cfg.Storage.HotCapacity)
	assert.Equal(t, 32, cfg.Resonance.CoherenceSampleSize)
	assert.Equal(t, 5*time.Second, cfg.Dynamics.TickInterval)
	assert.False(t, cfg.Maintenance.Enabled)
}

func TestLoadFromEnvIgnoresUnsetVars(t *testing.T) {
	cfg := LoadFromEnv()
	assert.Equal(t, DefaultConfig().Resonance.ConfidenceWeight, cfg.Resonance.ConfidenceWeight)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/resonantdb.yaml"
	yamlBody := "storage:\n  data_dir: /var/lib/resonantdb\n  hot_capacity: 2000\nresonance:\n  coherence_sample_size: 16\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/resonantdb", cfg.Storage.DataDir)
	assert.Equal(t, 2000, cfg.Storage.HotCapacity)
	assert.Equal(t, 16, cfg.Resonance.CoherenceSampleSize)
	assert.Equal(t, DefaultConfig().Dynamics.TickInterval, cfg.Dynamics.TickInterval)
}

func TestLoadFromEnvOrFileEnvTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/resonantdb.yaml"
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  hot_capacity: 2000\n"), 0o644))
	t.Setenv("RESONANTDB_HOT_CAPACITY", "777")

	cfg, err := LoadFromEnvOrFile(path)
	require.NoError(t, err)
	assert.Equal(t, 777, cfg.Storage.HotCapacity)
}

func TestLoadFromEnvOrFileMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadFromEnvOrFile("/no/such/file.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Storage.HotCapacity, cfg.Storage.HotCapacity)
}
