package config

import (
	"fmt"
	"strconv"
	"time"
)

const envPrefix = "DASHAPI_"

// parseEnv overlays cfg with DASHAPI_* variables, e.g. DASHAPI_BASE_URL or
// DASHAPI_QUEUE_TIMEOUT=5s. Malformed numbers and durations panic.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	get := func(name string) (string, bool) {
		return lookup(envPrefix + name)
	}

	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
			}
			*dst = n
		}
	}

	str("BASE_URL", &cfg.BaseURL)
	str("REFRESH_PATH", &cfg.RefreshPath)
	str("TOKEN_DB_PATH", &cfg.TokenDBPath)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("SESSION_KEY", &cfg.SessionKey)
	dur("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	num("MAX_IN_FLIGHT", &cfg.MaxInFlight)
	dur("QUEUE_TIMEOUT", &cfg.QueueTimeout)
	if v, ok := get("RATE_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("%sRATE_PER_SECOND: %w", envPrefix, err))
		}
		cfg.RatePerSecond = f
	}
	num("RATE_BURST", &cfg.RateBurst)
	dur("RETRY_BASE_DELAY", &cfg.RetryBaseDelay)
	dur("RETRY_MAX_DELAY", &cfg.RetryMaxDelay)
	num("RETRY_MAX_ATTEMPTS", &cfg.RetryMaxAttempts)
	dur("EXPIRY_SKEW", &cfg.ExpirySkew)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_LEVEL", &cfg.LogLevel)
}
