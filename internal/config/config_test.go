package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func withDotEnv(t *testing.T, path string) {
	t.Helper()
	prev := DotEnvFile
	DotEnvFile = path
	t.Cleanup(func() { DotEnvFile = prev })
}

func TestLoadClientDefaults(t *testing.T) {
	withDotEnv(t, "")

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.URL)
	assert.Equal(t, "default", cfg.Database)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 128, cfg.HTTP.MaxIdle)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Zero(t, cfg.Cache.TTL)
}

func TestLoadClientEnvMapping(t *testing.T) {
	withDotEnv(t, "")
	t.Setenv("FLIN_API_URL", "https://api.example.com")
	t.Setenv("FLIN_API_KEY", "secret")
	t.Setenv("FLIN_DATABASE", "shop")
	t.Setenv("FLIN_HTTP_TIMEOUT", "5s")
	t.Setenv("FLIN_RATE_LIMIT", "2.5")
	t.Setenv("FLIN_CACHE_MEMORY", "true")
	t.Setenv("FLIN_CACHE_TTL", "1m")

	cfg, err := LoadClient("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.API.URL)
	assert.Equal(t, "secret", cfg.API.Key)
	assert.Equal(t, "shop", cfg.Database)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2.5, cfg.Rate.Limit)
	assert.True(t, cfg.Cache.Memory)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoadClientPrecedence(t *testing.T) {
	file := writeFile(t, "flin.yaml", `
api:
  url: http://from-file
  key: file-key
database: filedb
log:
  level: info
`)
	dotenv := writeFile(t, ".env", "FLIN_API_KEY=dotenv-key\nFLIN_DATABASE=dotenvdb\n")
	withDotEnv(t, dotenv)
	t.Setenv("FLIN_DATABASE", "envdb")

	cfg, err := LoadClient(file)
	require.NoError(t, err)
	assert.Equal(t, "http://from-file", cfg.API.URL)
	assert.Equal(t, "dotenv-key", cfg.API.Key)
	assert.Equal(t, "envdb", cfg.Database)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	withDotEnv(t, "")
	_, err := LoadClient(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadCustomTarget(t *testing.T) {
	withDotEnv(t, "")
	t.Setenv("DEVSRV_LISTEN_ADDR", ":9999")

	var target struct {
		Listen struct {
			Addr string `mapstructure:"addr"`
		} `mapstructure:"listen"`
	}
	require.NoError(t, Load("DEVSRV_", "", &target))
	assert.Equal(t, ":9999", target.Listen.Addr)
}
