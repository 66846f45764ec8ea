package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfmarket-sync/internal/config"
)

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("SYNC_LIMIT", "10")
	t.Setenv("SYNC_DB_PATH", "env.sqlite3")

	cfg, err := loadConfig([]string{"-limit", "3", "-pause", "0", "-failure-policy", "continue", "-allow-empty-catalog"})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Sync.Limit)
	assert.Equal(t, "env.sqlite3", cfg.Sync.DatabasePath)
	assert.Zero(t, cfg.Sync.Pause())
	assert.Equal(t, config.FailurePolicyContinue, cfg.Sync.FailurePolicy)
	assert.True(t, cfg.Sync.AllowEmptyCatalog)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig([]string{"-limit", "-1"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"-failure-policy", "skip"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"extra"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitConfig, exitCode(&configError{errors.New("bad")}))
	assert.Equal(t, exitFailed, exitCode(errors.New("sync aborted")))
}
