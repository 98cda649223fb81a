package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/flagx"
	"github.com/dmitrijs2005/dashapi/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key from a zero value.
type JsonConfig struct {
	BaseURL     *string `json:"base_url"`
	RefreshPath *string `json:"refresh_path"`

	TokenDBPath *string `json:"token_db_path"`
	RedisAddr   *string `json:"redis_addr"`
	SessionKey  *string `json:"session_key"`

	RequestTimeout *timex.Duration `json:"request_timeout"`
	MaxInFlight    *int            `json:"max_in_flight"`
	QueueTimeout   *timex.Duration `json:"queue_timeout"`
	RatePerSecond  *float64        `json:"rate_per_second"`
	RateBurst      *int            `json:"rate_burst"`

	Retry *struct {
		BaseDelay   *timex.Duration `json:"base_delay"`
		MaxDelay    *timex.Duration `json:"max_delay"`
		MaxAttempts *int            `json:"max_attempts"`
	} `json:"retry"`

	ExpirySkew *timex.Duration `json:"expiry_skew"`

	LogFormat *string `json:"log_format"`
	LogLevel  *string `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by -c or
// -config in args. Without either flag it does nothing. Read and decode
// errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setValue(&cfg.BaseURL, jc.BaseURL)
	setValue(&cfg.RefreshPath, jc.RefreshPath)
	setValue(&cfg.TokenDBPath, jc.TokenDBPath)
	setValue(&cfg.RedisAddr, jc.RedisAddr)
	setValue(&cfg.SessionKey, jc.SessionKey)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setValue(&cfg.MaxInFlight, jc.MaxInFlight)
	setDuration(&cfg.QueueTimeout, jc.QueueTimeout)
	setValue(&cfg.RatePerSecond, jc.RatePerSecond)
	setValue(&cfg.RateBurst, jc.RateBurst)
	if jc.Retry != nil {
		setDuration(&cfg.RetryBaseDelay, jc.Retry.BaseDelay)
		setDuration(&cfg.RetryMaxDelay, jc.Retry.MaxDelay)
		setValue(&cfg.RetryMaxAttempts, jc.Retry.MaxAttempts)
	}
	setDuration(&cfg.ExpirySkew, jc.ExpirySkew)
	setValue(&cfg.LogFormat, jc.LogFormat)
	setValue(&cfg.LogLevel, jc.LogLevel)
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
