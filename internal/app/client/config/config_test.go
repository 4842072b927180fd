package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("VAULTKEEPER_SESSION", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultServerAddress, cfg.ServerAddress)
	assert.Equal(t, defaultKDFIterations, cfg.KDFIterations)
	assert.Equal(t, 15*time.Minute, cfg.Window)
	assert.Equal(t, filepath.Join(dir, "token.json"), cfg.TokenPath)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.CachePath)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	assert.Empty(t, cfg.SessionSecret)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("SERVER_ADDRESS", "vault.example.com")
	t.Setenv("ENABLE_TLS", "true")
	t.Setenv("VAULT_WINDOW", "5m")
	t.Setenv("VAULTKEEPER_SESSION", "abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://vault.example.com", cfg.BaseURL())
	assert.Equal(t, 5*time.Minute, cfg.Window)
	assert.Equal(t, "abc", cfg.SessionSecret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "few iterations", key: "VAULT_KDF_ITERATIONS", val: "1000"},
		{name: "zero window", key: "VAULT_WINDOW", val: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_DIR", t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
