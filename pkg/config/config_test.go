package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvDatabaseURL, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, defaultServerURL, cfg.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.True(t, filepath.IsAbs(cfg.CacheDir))
}

func TestLoadFormats(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvDatabaseURL, "")

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
server_url = "https://game.example.com"
request_timeout = "5s"
poll_interval = "2s"
cache_dir = "/tmp/reactions"
store_driver = "memory"
api_addr = ":9000"
log_level = "debug"
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
server_url: https://game.example.com
request_timeout: 5s
poll_interval: 2s
cache_dir: /tmp/reactions
store_driver: memory
api_addr: ":9000"
log_level: debug
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "https://game.example.com", cfg.ServerURL)
			assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
			assert.Equal(t, 2*time.Second, cfg.PollInterval)
			assert.Equal(t, time.Second, cfg.CountdownInterval)
			assert.Equal(t, "/tmp/reactions", cfg.CacheDir)
			assert.Equal(t, "memory", cfg.StoreDriver)
			assert.Equal(t, ":9000", cfg.APIAddr)
			assert.Equal(t, "debug", cfg.LogLevel)
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvServerURL, "wss://game.example.com/ws")
	t.Setenv(EnvDatabaseURL, "postgres://localhost/reactions")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "wss://game.example.com/ws", cfg.ServerURL)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/reactions", cfg.StoreDSN)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvDatabaseURL, "")

	tests := []struct {
		name    string
		content string
	}{
		{name: "bad duration", content: `poll_interval = "soon"`},
		{name: "bad driver", content: `store_driver = "redis"`},
		{name: "bad scheme", content: `server_url = "ftp://example.com"`},
		{name: "bad toml", content: `server_url = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/cache")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), expanded)

	_, err = ExpandPath("  ")
	assert.Error(t, err)
}
