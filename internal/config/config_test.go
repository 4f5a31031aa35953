package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: ":8080"
db:
  host: localhost
  port: 5432
  user: mailpilot
  password: secret
  name: mailpilot
redis:
  addr: localhost:6379
oracle:
  base_url: http://localhost:9090
  timeout_seconds: 5
retry:
  max_retries: 3
  base_delay_ms: 1000
  max_delay_ms: 10000
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "http://localhost:9090", cfg.Oracle.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Oracle.Timeout())
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay())
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ORACLE_BASE_URL", "http://oracle.internal:9090")
	t.Setenv("SERVER_PORT", ":9999")

	cfg, err := Load(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "http://oracle.internal:9090", cfg.Oracle.BaseURL)
	assert.Equal(t, ":9999", cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRetryConfig_Defaults(t *testing.T) {
	var c RetryConfig
	assert.Equal(t, time.Second, c.BaseDelay())
	assert.Equal(t, 10*time.Second, c.MaxDelay())
}
