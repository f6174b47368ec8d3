package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".ajax.yaml", `
timeout: 5000
followRedirects: false
headers:
  Authorization: Bearer abc
transports: [resty, net]
rateLimit: 2.5
jsonpPrefix: cb_
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Timeout)
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
	assert.False(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Equal(t, "Bearer abc", cfg.Headers["Authorization"])
	assert.Equal(t, []string{"resty", "net"}, cfg.Transports)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, "cb_", cfg.JSONPPrefix)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ajax.config.json", `{"timeout": 1000, "validateSSL": false, "logLevel": "debug"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetFollowRedirects())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(writeFile(t, dir, "bad.json", `{"timeout": `))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, dir, "bad.yaml", "timeout: [1"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no file returns defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault())
	})

	t.Run("yaml preferred over json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".ajax.json", `{"timeout": 1}`)
		writeFile(t, dir, ".ajax.yml", "timeout: 2")

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Timeout)
		assert.False(t, cfg.IsDefault())
	})
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1", "B": "2"}

	merged := base.Merge(&Config{
		Timeout:     100,
		Proxy:       "http://proxy:8080",
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "override"},
		Transports:  []string{"resty"},
	})

	assert.Equal(t, 100, merged.Timeout)
	assert.Equal(t, "http://proxy:8080", merged.Proxy)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, map[string]string{"A": "1", "B": "override"}, merged.Headers)
	assert.Equal(t, []string{"resty"}, merged.Transports)

	// The receiver is left untouched.
	assert.Equal(t, 30000, base.Timeout)
	assert.Equal(t, "2", base.Headers["B"])

	assert.Same(t, base, base.Merge(nil))
}

func TestConfig_SaveConfig(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Timeout = 1234
	cfg.Headers = map[string]string{"X": "y"}

	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestConfig_ClientOptions(t *testing.T) {
	cfg := DefaultConfig()
	base := len(cfg.ClientOptions(zap.NewNop()))

	cfg.Proxy = "http://proxy:8080"
	cfg.Headers = map[string]string{"X": "y"}
	cfg.RateLimit = 5
	cfg.JSONPPrefix = "cb_"

	assert.Equal(t, base+4, len(cfg.ClientOptions(zap.NewNop())))
}
