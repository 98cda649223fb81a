package config

import (
	"flag"

	"github.com/dmitrijs2005/dashapi/internal/flagx"
)

// Flags are filtered out of the full command line with flagx.FilterArgs, so
// subcommands and their operands do not interfere.
var knownFlags = []string{
	"-u", "-db", "-redis", "-session", "-timeout", "-max-inflight",
	"-queue-timeout", "-rate", "-log-level", "-log-format",
}

// ValueFlags lists every global flag that takes a value, including -c and
// -config, so callers can tell flag values from positional arguments.
func ValueFlags() []string {
	return append([]string{"-c", "-config"}, knownFlags...)
}

// parseFlags populates Config fields from command-line flags. Parse errors
// panic.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "u", cfg.BaseURL, "base URL of the API")
	fs.StringVar(&cfg.TokenDBPath, "db", cfg.TokenDBPath, "path of the local token database")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "host:port of a Redis server holding the tokens")
	fs.StringVar(&cfg.SessionKey, "session", cfg.SessionKey, "session key used with Redis")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-attempt request timeout")
	fs.IntVar(&cfg.MaxInFlight, "max-inflight", cfg.MaxInFlight, "concurrent requests")
	fs.DurationVar(&cfg.QueueTimeout, "queue-timeout", cfg.QueueTimeout, "how long a request may wait for a slot")
	fs.Float64Var(&cfg.RatePerSecond, "rate", cfg.RatePerSecond, "requests per second, 0 disables pacing")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text, json or zerolog")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
