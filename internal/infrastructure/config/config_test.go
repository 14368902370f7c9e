package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, DefaultCollection, cfg.Qdrant.Collection)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.PollInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Worker.RequestTimeout.Std())
}

func TestConfigDir(t *testing.T) {
	result := ConfigDir("/home/user/project")
	assert.Equal(t, "/home/user/project/.qadim", result)
}

func TestConfigFilePath(t *testing.T) {
	result := ConfigFilePath("/home/user/project")
	assert.Equal(t, "/home/user/project/.qadim/config.yaml", result)
}

func TestSQLitePath(t *testing.T) {
	result := SQLitePath("/home/user/project")
	assert.Equal(t, "/home/user/project/.qadim/qadim.db", result)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_Defaults(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, WriteDefault(base))

	cfg, err := Load(base)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, DefaultCollection, cfg.Qdrant.Collection)
	assert.Equal(t, SQLitePath(base), cfg.SQLite.Path)
}

func TestLoad_QueueOverrides(t *testing.T) {
	base := t.TempDir()
	dir := ConfigDir(base)
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := `
queues:
  answer-generation:
    max_attempts: 7
    backoff_base: 4s
worker:
  poll_interval: 100ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0644))

	cfg, err := Load(base)
	require.NoError(t, err)

	q, ok := cfg.Queues["answer-generation"]
	require.True(t, ok)
	assert.Equal(t, 7, q.MaxAttempts)
	assert.Equal(t, 4*time.Second, q.BackoffBase.Std())
	assert.Equal(t, 100*time.Millisecond, cfg.Worker.PollInterval.Std())
}

func TestLoad_EnvOverrides(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, WriteDefault(base))

	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(base)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "env-key", cfg.Embedder.APIKey)
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, WriteDefault(base))

	err := WriteDefault(base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWriteDefault_OwnerOnlyPermissions(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, WriteDefault(base))

	info, err := os.Stat(ConfigFilePath(base))
	require.NoError(t, err)
	// The file can hold API keys.
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDuration_RoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", out)
}
