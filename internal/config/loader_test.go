package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeGroupsStub(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	groupsFile := writeGroupsStub(t)
	t.Setenv("GROUPS_FILE", groupsFile)

	var cfg Config
	err := LoadConfig(&cfg, []string{"router"})
	require.NoError(t, err)

	require.Equal(t, groupsFile, cfg.Groups.File)
	require.Equal(t, DefaultPollInterval, cfg.Allowance.PollInterval)
	require.Equal(t, DefaultSchedulerInterval, cfg.Scheduler.Interval)
	require.Equal(t, DefaultBatchSize, cfg.Allowance.BatchSize)
	require.Equal(t, "info", cfg.Log.LevelApp)
	require.Equal(t, "development", cfg.Environment)
}

func TestLoadConfigFlagOverridesEnv(t *testing.T) {
	groupsFile := writeGroupsStub(t)
	t.Setenv("GROUPS_FILE", groupsFile)
	t.Setenv("SCHEDULER_INTERVAL", "20s")
	t.Setenv("LOG_LEVEL_APP", "warn")

	var cfg Config
	err := LoadConfig(&cfg, []string{"router", "--scheduler-interval=5s", "--allowance-batch-size=4"})
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.Scheduler.Interval)
	require.Equal(t, 4, cfg.Allowance.BatchSize)
	require.Equal(t, "warn", cfg.Log.LevelApp)
}

func TestLoadConfigInvalidEnv(t *testing.T) {
	t.Setenv("SCHEDULER_INTERVAL", "often")

	var cfg Config
	err := LoadConfig(&cfg, []string{"router"})
	require.ErrorIs(t, err, ErrEnvParse)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("GROUPS_FILE", filepath.Join(t.TempDir(), "missing.json"))

	var cfg Config
	err := LoadConfig(&cfg, []string{"router"})
	require.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoadConfigInvalidLogLevel(t *testing.T) {
	t.Setenv("GROUPS_FILE", writeGroupsStub(t))

	var cfg Config
	err := LoadConfig(&cfg, []string{"router", "--log-level-app=verbose"})
	require.ErrorIs(t, err, ErrConfigValidation)
}

func TestSetDefaultsRetryBounds(t *testing.T) {
	var cfg Config
	cfg.Allowance.RetryMinDelay = time.Minute
	cfg.Allowance.RetryMaxDelay = time.Second
	cfg.SetDefaults()

	require.Equal(t, time.Minute, cfg.Allowance.RetryMaxDelay)
}
