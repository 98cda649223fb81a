// Package config loads runtime configuration for the dashapi CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables prefixed with DASHAPI_ (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-u string            base URL of the API
//	-db string           path of the local token database
//	-redis string        host:port of a Redis server holding the tokens
//	-session string      session key used with Redis
//	-timeout duration    per-attempt request timeout
//	-max-inflight int    concurrent requests
//	-queue-timeout dur   how long a request may wait for a slot
//	-rate float          requests per second, 0 disables pacing
//	-log-level string    debug, info, warn or error
//	-log-format string   text, json or zerolog
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "300ms" or
// integer nanoseconds. Absent keys keep their previous value:
//
//	{
//	  "base_url": "https://dash.example.com/api",
//	  "token_db_path": "/var/lib/dashapi/tokens.db",
//	  "request_timeout": "30s",
//	  "max_in_flight": 6,
//	  "retry": {"base_delay": "300ms", "max_delay": "8s", "max_attempts": 3}
//	}
//
// Malformed input panics, matching how flag.PanicOnError reports it.
package config
