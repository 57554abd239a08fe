package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "procedura.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Mode)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 10*time.Second, cfg.API.ShutdownTimeout.Duration)
	assert.Equal(t, ":8080", cfg.APIAddr())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[storage]
mode = "memory"
catalog = "catalog.json"

[api]
port = 9090
shutdown_timeout = "3s"

[log]
level = "DEBUG"
format = "text"

[audit]
cron = "*/5 * * * *"
`)

	cfg, err := load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Mode)
	assert.Equal(t, "catalog.json", cfg.Storage.Catalog)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, 3*time.Second, cfg.API.ShutdownTimeout.Duration)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 8082, cfg.Worker.Port, "unset keys keep defaults")
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, "[api]\nport = 7070\n")

	cfg, err := load("", env(map[string]string{EnvConfigPath: path}))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.API.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[api]\nport = 9090\n[db]\nurl = \"postgres://file\"\n")

	cfg, err := load(path, env(map[string]string{
		"API_PORT":        "7000",
		"DB_URL":          "postgres://env",
		"LOG_LEVEL":       "WARN",
		"DB_AUTO_MIGRATE": "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.API.Port)
	assert.Equal(t, "postgres://env", cfg.DB.URL)
	assert.Equal(t, "WARN", cfg.Log.Level)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "[api]\nprot = 9090\n")

	_, err := load(path, env(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.prot")
}

func TestLoad_InvalidEnv(t *testing.T) {
	_, err := load("", env(map[string]string{"API_PORT": "http"}))
	assert.ErrorContains(t, err, "API_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown storage", func(c *Config) { c.Storage.Mode = "redis" }, "storage.mode"},
		{"memory without catalog", func(c *Config) { c.Storage.Mode = StorageMemory }, "storage.catalog"},
		{"bad cron", func(c *Config) { c.Audit.Cron = "every day" }, "audit.cron"},
		{"bad port", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := load("../../procedura.example.toml", env(nil))
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Mode)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, "@every 15m", cfg.Audit.Cron)
}
