package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "social.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SOCIAL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFileThenEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, `
server:
  http_addr: ":9090"
storage:
  db_path: /var/lib/social.db
mirror:
  ledger: rpc
  rpc_url: http://node:9933
  ack_wait: 1s
logging:
  format: json
`)
	t.Setenv("SOCIAL_DB_PATH", "/tmp/override.db")
	t.Setenv("SOCIAL_MIRROR_RETRY_DELAY", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.DBPath)
	assert.Equal(t, "rpc", cfg.Mirror.Ledger)
	assert.Equal(t, time.Second, cfg.Mirror.AckWait)
	assert.Equal(t, 2*time.Second, cfg.Mirror.RetryDelay)
	assert.Equal(t, 3, cfg.Mirror.MaxAttempts)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SOCIAL_LOG_LEVEL=debug\n"), 0o600))
	// Register a restore, then unset so godotenv is allowed to fill it in.
	t.Setenv("SOCIAL_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("SOCIAL_LOG_LEVEL"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, `
mirror:
  ledger: carrier-pigeon
  max_attempts: 0
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror.ledger")
	assert.Contains(t, err.Error(), "mirror.max_attempts")

	t.Setenv("SOCIAL_MIRROR_ACK_WAIT", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "SOCIAL_MIRROR_ACK_WAIT")
}
