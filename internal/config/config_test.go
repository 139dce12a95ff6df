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
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Minute, cfg.ExpiryCheckInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.RedirectDelay)
	assert.Equal(t, 4*time.Second, cfg.ToastDuration)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().APIURL, cfg.APIURL)
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://api.example.com
store_backend: bolt
expiry_check_interval: 1m
redirect_delay: 0s
cors_origins:
  - https://app.example.com
`), 0o600))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("NUTRI_LOGIN_URL=https://login.example.com\nNUTRI_REQUEST_TIMEOUT=10s\n"), 0o600))

	t.Setenv("NUTRI_STORE_BACKEND", "memory")
	t.Setenv("NUTRI_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "https://login.example.com", cfg.LoginURL)
	assert.Equal(t, BackendMemory, cfg.StoreBackend, "environment wins over file")
	assert.Equal(t, time.Minute, cfg.ExpiryCheckInterval)
	assert.Equal(t, time.Duration(0), cfg.RedirectDelay)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)

	// godotenv sets what it loads; keep later tests clean
	t.Cleanup(func() {
		os.Unsetenv("NUTRI_LOGIN_URL")
		os.Unsetenv("NUTRI_REQUEST_TIMEOUT")
	})
}

func TestLoad_BadYAML(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestMergeEnv_Errors(t *testing.T) {
	env := map[string]string{
		"NUTRI_REDIRECT_DELAY":  "soon",
		"NUTRI_RETRY_MAX_TRIES": "-1",
		"NUTRI_DEBUG":           "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	err := cfg.mergeEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUTRI_REDIRECT_DELAY")
	assert.Contains(t, err.Error(), "NUTRI_RETRY_MAX_TRIES")
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "relative api url", mutate: func(c *Config) { c.APIURL = "/api" }, wantErr: "api_url"},
		{name: "ftp login url", mutate: func(c *Config) { c.LoginURL = "ftp://x" }, wantErr: "login_url"},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "redis" }, wantErr: "store_backend"},
		{name: "empty state dir", mutate: func(c *Config) { c.StateDir = " " }, wantErr: "state_dir"},
		{name: "zero interval", mutate: func(c *Config) { c.ExpiryCheckInterval = 0 }, wantErr: "expiry_check_interval"},
		{name: "negative delay", mutate: func(c *Config) { c.RedirectDelay = -time.Second }, wantErr: "redirect_delay"},
		{name: "zero tries", mutate: func(c *Config) { c.RetryMaxTries = 0 }, wantErr: "retry_max_tries"},
		{name: "ratio above one", mutate: func(c *Config) { c.TraceSampleRatio = 2 }, wantErr: "trace_sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("memory backend needs no state dir", func(t *testing.T) {
		cfg := Default()
		cfg.StoreBackend = BackendMemory
		cfg.StateDir = ""
		assert.NoError(t, cfg.Validate())
	})
}
