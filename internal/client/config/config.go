package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the dashapi CLI.
//
// Units: every *Timeout, *Delay and ExpirySkew field is a time.Duration;
// RatePerSecond is requests per second, zero disables pacing.
type Config struct {
	BaseURL     string
	RefreshPath string

	TokenDBPath string
	RedisAddr   string
	SessionKey  string

	RequestTimeout time.Duration
	MaxInFlight    int
	QueueTimeout   time.Duration
	RatePerSecond  float64
	RateBurst      int

	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int

	ExpirySkew time.Duration

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8000/api"
	c.RefreshPath = "/auth/token/refresh/"
	c.TokenDBPath = "dashapi.db"
	c.RedisAddr = ""
	c.SessionKey = "default"
	c.RequestTimeout = 30 * time.Second
	c.MaxInFlight = 6
	c.QueueTimeout = 30 * time.Second
	c.RatePerSecond = 0
	c.RateBurst = 0
	c.RetryBaseDelay = 300 * time.Millisecond
	c.RetryMaxDelay = 8 * time.Second
	c.RetryMaxAttempts = 3
	c.ExpirySkew = 30 * time.Second
	c.LogFormat = "text"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load is LoadConfig with explicit arguments and environment lookup.
func Load(args []string, lookupEnv func(string) (string, bool)) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, lookupEnv)
	parseFlags(cfg, args)
	return cfg
}
