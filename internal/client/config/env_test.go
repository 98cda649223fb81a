package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	cfg := &Config{}
	parseEnv(cfg, envMap(map[string]string{
		"DASHAPI_BASE_URL":           "https://env.example/api",
		"DASHAPI_REDIS_ADDR":         "redis:6379",
		"DASHAPI_MAX_IN_FLIGHT":      "4",
		"DASHAPI_RATE_PER_SECOND":    "1.5",
		"DASHAPI_RETRY_BASE_DELAY":   "250ms",
		"DASHAPI_RETRY_MAX_ATTEMPTS": "2",
		"DASHAPI_LOG_FORMAT":         "zerolog",
		"BASE_URL":                   "ignored without prefix",
	}))

	assert.Equal(t, "https://env.example/api", cfg.BaseURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 4, cfg.MaxInFlight)
	assert.Equal(t, 1.5, cfg.RatePerSecond)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 2, cfg.RetryMaxAttempts)
	assert.Equal(t, "zerolog", cfg.LogFormat)
}

func TestParseEnv_Malformed(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"duration": {"DASHAPI_QUEUE_TIMEOUT": "soon"},
		"int":      {"DASHAPI_RATE_BURST": "lots"},
		"float":    {"DASHAPI_RATE_PER_SECOND": "fast"},
	} {
		t.Run(name, func(t *testing.T) {
			require.Panics(t, func() { parseEnv(&Config{}, envMap(env)) })
		})
	}
}

func TestParseEnv_NilLookup(t *testing.T) {
	cfg := &Config{BaseURL: "keep"}
	require.NotPanics(t, func() { parseEnv(cfg, nil) })
	assert.Equal(t, "keep", cfg.BaseURL)
}
