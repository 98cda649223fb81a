// Package retry decides whether and when a failed attempt is tried again.
//
// Only network errors, timeouts and HTTP 5xx are retried. The delay before
// retry n is Delay(n) plus a jitter drawn from [0, BaseDelay), so clients
// that failed together do not come back together.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/transport"
	goretry "github.com/sethvargo/go-retry"
)

// Decision is computed for every failed attempt and never stored.
type Decision struct {
	ShouldRetry bool
	Delay       time.Duration
	Reason      string
}

type Config struct {
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultConfig is 300ms doubling up to 8s, three attempts in total.
func DefaultConfig() Config {
	return Config{
		BaseDelay:   300 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    8 * time.Second,
		MaxAttempts: 3,
	}
}

type Policy struct {
	cfg    Config
	jitter func(limit time.Duration) time.Duration

	// OnRetry, when set, observes each decision to retry before the wait.
	OnRetry func(ctx context.Context, attempt int, err error, d Decision)
}

type Option func(*Policy)

// WithJitter replaces the random jitter source. f receives the exclusive
// upper bound and must return a value in [0, limit).
func WithJitter(f func(limit time.Duration) time.Duration) Option {
	return func(p *Policy) {
		if f != nil {
			p.jitter = f
		}
	}
}

func NewPolicy(cfg Config, opts ...Option) *Policy {
	def := DefaultConfig()
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = max(def.MaxDelay, cfg.BaseDelay)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}

	p := &Policy{cfg: cfg, jitter: randomJitter}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Policy) Config() Config {
	return p.cfg
}

// Delay is the backoff before retrying after the given 1-based attempt,
// without jitter: BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.cfg.BaseDelay) * math.Pow(p.cfg.Multiplier, float64(attempt-1))
	if d >= float64(p.cfg.MaxDelay) || math.IsInf(d, 0) {
		return p.cfg.MaxDelay
	}
	return time.Duration(d)
}

// Decide classifies the error of the given 1-based attempt.
func (p *Policy) Decide(attempt int, err error) Decision {
	ok, reason := Retryable(err)
	if !ok {
		return Decision{Reason: reason}
	}
	if attempt >= p.cfg.MaxAttempts {
		return Decision{Reason: "attempts exhausted"}
	}
	return Decision{
		ShouldRetry: true,
		Delay:       p.Delay(attempt) + p.jitter(p.cfg.BaseDelay),
		Reason:      reason,
	}
}

// Retryable reports whether err is worth another attempt and why.
func Retryable(err error) (bool, string) {
	if err == nil {
		return false, "success"
	}
	// An attempt timeout wraps context.DeadlineExceeded too, so the kind
	// decides before any context check.
	e, ok := transport.AsError(err)
	if !ok {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, "caller context done"
		}
		return false, "not a transport failure"
	}
	switch e.Kind {
	case transport.KindNetwork:
		return true, "network error"
	case transport.KindTimeout:
		return true, "timeout"
	case transport.KindHTTP:
		if e.Status >= 500 {
			return true, "server error"
		}
		return false, "client error"
	}
	return false, "unknown failure"
}

// Do calls fn until it succeeds, fails with a non-retryable error or runs out
// of attempts. The error of the last attempt is returned unmodified.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempt := 0
	var next Decision

	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		return next.Delay, false
	})

	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		next = p.Decide(attempt, err)
		if !next.ShouldRetry {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(ctx, attempt, err, next)
		}
		return goretry.RetryableError(err)
	})
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit)))
}
