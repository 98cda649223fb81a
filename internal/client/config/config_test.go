package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8000/api", c.BaseURL)
	assert.Equal(t, "/auth/token/refresh/", c.RefreshPath)
	assert.Equal(t, 6, c.MaxInFlight)
	assert.Equal(t, 300*time.Millisecond, c.RetryBaseDelay)
	assert.Equal(t, 8*time.Second, c.RetryMaxDelay)
	assert.Equal(t, 3, c.RetryMaxAttempts)
	assert.Zero(t, c.RatePerSecond)
}

func TestLoad_UsesDefaultsWithoutSources(t *testing.T) {
	cfg := Load(nil, noEnv)

	require.NotNil(t, cfg, "Load must not return nil")
	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"base_url":      "https://json.example/api",
		"session_key":   "from-json",
		"queue_timeout": "7s",
		"max_in_flight": 2,
	})
	env := envMap(map[string]string{
		"DASHAPI_BASE_URL":      "https://env.example/api",
		"DASHAPI_QUEUE_TIMEOUT": "9s",
	})

	cfg := Load([]string{"-c", path, "-u", "https://flag.example/api", "get", "/x/"}, env)

	assert.Equal(t, "https://flag.example/api", cfg.BaseURL, "flags win")
	assert.Equal(t, 9*time.Second, cfg.QueueTimeout, "env beats json")
	assert.Equal(t, "from-json", cfg.SessionKey, "json beats defaults")
	assert.Equal(t, 2, cfg.MaxInFlight)
}
