package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "auto", cfg.Fetch.JSMode)
	require.NotEmpty(t, cfg.Fetch.UserAgent)
	require.Equal(t, 20*time.Second, cfg.FetchTimeout())
	require.Equal(t, 2_000_000, cfg.Fetch.MaxBodyBytes)
	require.Equal(t, time.Second, cfg.MinDomainDelay())
	require.Equal(t, 3, cfg.Throttle.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.BackoffBase())
	require.False(t, cfg.Headless.Enabled)
	require.Equal(t, 45*time.Second, cfg.NavTimeout())
	require.True(t, cfg.Logging.Development)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fetch:
  js_mode: "off"
  timeout_seconds: 5
throttle:
  max_attempts: 5
headless:
  enabled: true
  max_parallel: 2
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "off", cfg.Fetch.JSMode)
	require.Equal(t, 5*time.Second, cfg.FetchTimeout())
	require.Equal(t, 5, cfg.Throttle.MaxAttempts)
	require.True(t, cfg.Headless.Enabled)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fetch:
  js_mode: "sometimes"
`), 0o600))

	_, err := Load(path)
	require.ErrorContains(t, err, "fetch.js_mode")
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cfg := base
	cfg.Fetch.UserAgent = ""
	require.ErrorContains(t, cfg.Validate(), "fetch.user_agent")

	cfg = base
	cfg.Throttle.MaxAttempts = 0
	require.ErrorContains(t, cfg.Validate(), "throttle.max_attempts")

	cfg = base
	cfg.Headless.Enabled = true
	cfg.Headless.MaxParallel = 0
	require.ErrorContains(t, cfg.Validate(), "headless.max_parallel")
}
