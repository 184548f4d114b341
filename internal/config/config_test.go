package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
storage:
  path: /tmp/employee.db
http_server:
  address: localhost:8082
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "employeeApp", cfg.AppName)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.Storage.MaxOpenConns)
	assert.Equal(t, "localhost:8082", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
env: dev
storage:
  path: /tmp/employee.db
http_server:
  address: localhost:8082
`)
	t.Setenv("HTTP_SERVER_ADDR", "0.0.0.0:9000")
	t.Setenv("APP_NAME", "masiemployeeApp")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "masiemployeeApp", cfg.AppName)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "sqlite without path",
			body: "env: dev\nhttp_server:\n  address: :8082\n",
		},
		{
			name: "postgres without dsn",
			body: "env: dev\nstorage:\n  driver: postgres\nhttp_server:\n  address: :8082\n",
		},
		{
			name: "unknown driver",
			body: "env: dev\nstorage:\n  driver: oracle\n  path: x\nhttp_server:\n  address: :8082\n",
		},
		{
			name: "missing env",
			body: "storage:\n  path: x\nhttp_server:\n  address: :8082\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}
