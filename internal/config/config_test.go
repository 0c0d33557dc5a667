package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:7233", cfg.TemporalAddress)
	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DemoMode)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/compute")
	t.Setenv("HYPERVISOR_URL", "https://hv.example.com:8006")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/compute", cfg.DatabaseURL)
	assert.Equal(t, "https://hv.example.com:8006", cfg.HypervisorURL)
	assert.True(t, cfg.DemoMode)
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("hypervisor:\n  url: https://file.example.com:8006\n  token_id: file-token\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("HYPERVISOR_URL", "https://env.example.com:8006")
	t.Setenv("HYPERVISOR_TOKEN_SECRET", "env-secret")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com:8006", cfg.HypervisorURL)
	assert.Equal(t, "file-token", cfg.HypervisorTokenID)
	// Fields absent from the file keep their env values.
	assert.Equal(t, "env-secret", cfg.HypervisorTokenSecret)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hypervisor: ["), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	cfg := &Config{TemporalAddress: "localhost:7233"}
	require.Error(t, cfg.Validate("worker"))

	cfg.DatabaseURL = "postgres://localhost/compute"
	err := cfg.Validate("worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HYPERVISOR_URL")

	cfg.DemoMode = true
	assert.NoError(t, cfg.Validate("worker"))

	cfg.DemoMode = false
	cfg.HypervisorURL = "https://hv.example.com:8006"
	assert.NoError(t, cfg.Validate("worker"))
}
