package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	require.NoError(t, cfg.validate())
}

func TestLoad_NoConfigPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := `
session:
  ttl: 5m
retry:
  max_attempts: 5
  base_delay: 100ms
store:
  driver: memory
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.RetryMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, "memory", cfg.StoreDriver)
	// Unset keys keep defaults.
	assert.Equal(t, Default().SQLitePath, cfg.SQLitePath)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FIELDWISE_STORE_DRIVER", "memory")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
}

func TestLoad_InvalidDriverRejected(t *testing.T) {
	t.Setenv("FIELDWISE_STORE_DRIVER", "dynamo")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid store.driver")
}

func TestLoad_InvalidRetryRejected(t *testing.T) {
	t.Setenv("FIELDWISE_RETRY_MAX_ATTEMPTS", "0")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_attempts")
}
