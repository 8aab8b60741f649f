package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoConfigFilePresent(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 60000, cfg.Task.RequeueTimeoutMs)
	assert.Equal(t, 5000, cfg.Workflow.MaxSearchSize)
	assert.Equal(t, "localhost:6379", cfg.Queue.RedisAddr)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_ReadsValuesFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("task:\n  requeue_timeout_ms: 15000\nworkflow:\n  max_search_size: 100\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deciderctl.yaml"), contents, 0o644))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 15000, cfg.Task.RequeueTimeoutMs)
	assert.Equal(t, 100, cfg.Workflow.MaxSearchSize)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DECIDER_TASK_REQUEUE_TIMEOUT_MS", "9999")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Task.RequeueTimeoutMs)
}

func TestLoad_RejectsInvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DECIDER_WORKFLOW_MAX_SEARCH_SIZE", "0")

	_, err := Load(dir)

	require.Error(t, err)
}
