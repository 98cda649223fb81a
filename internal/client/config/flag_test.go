package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags among subcommand arguments",
			args: []string{"-u", "https://x.example", "login", "ana", "-db", "/tmp/t.db", "-redis", "127.0.0.1:6379",
				"-session", "s1", "-timeout", "5s", "-max-inflight", "3", "-queue-timeout", "2s", "-rate", "2.5",
				"-log-level", "debug", "-log-format", "json"},
			expected: &Config{
				BaseURL: "https://x.example", TokenDBPath: "/tmp/t.db", RedisAddr: "127.0.0.1:6379", SessionKey: "s1",
				RequestTimeout: 5 * time.Second, MaxInFlight: 3, QueueTimeout: 2 * time.Second, RatePerSecond: 2.5,
				LogLevel: "debug", LogFormat: "json",
			},
		},
		{name: "unknown flags are ignored", args: []string{"-x", "1", "whoami"}, expected: &Config{}},
		{name: "incorrect timeout", args: []string{"-timeout", "abc"}, expectPanic: true},
		{name: "incorrect max in flight", args: []string{"-max-inflight", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestValueFlags_IncludesConfigFile(t *testing.T) {
	vf := ValueFlags()
	assert.Contains(t, vf, "-c")
	assert.Contains(t, vf, "-config")
	assert.Contains(t, vf, "-u")
}
