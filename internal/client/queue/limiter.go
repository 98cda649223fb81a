// Package queue bounds how many requests a client has in flight.
//
// Callers beyond the limit wait in FIFO order. Replays issued after a token
// refresh wait in a separate class that is always served first, which keeps
// the tail latency of requests caught by an expired token short. A token
// bucket can additionally pace bursts.
package queue

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/common"
	"golang.org/x/time/rate"
)

type Priority int

const (
	PriorityNormal Priority = iota
	PriorityReplay
)

type Config struct {
	// MaxInFlight is the number of concurrent holders. Defaults to 6.
	MaxInFlight int
	// QueueTimeout bounds the wait for a slot. Zero waits until ctx ends.
	QueueTimeout time.Duration
	// RatePerSecond and Burst configure pacing. Zero rate disables it.
	RatePerSecond float64
	Burst         int
}

const DefaultMaxInFlight = 6

type waiter struct {
	ready   chan struct{}
	granted bool
	class   *list.List
	elem    *list.Element
}

type Limiter struct {
	limit   int
	timeout time.Duration
	pacer   *rate.Limiter

	mu       sync.Mutex
	inFlight int
	replay   list.List
	normal   list.List
}

func New(cfg Config) *Limiter {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}

	l := &Limiter{limit: cfg.MaxInFlight, timeout: cfg.QueueTimeout}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.MaxInFlight
		}
		l.pacer = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return l
}

// Acquire waits for a slot. On success the returned release must be called
// once the request has finished; calling it again is a no-op. On failure
// the caller holds nothing: the error is common.ErrQueueTimeout when the
// queue timeout elapsed, or ctx.Err().
func (l *Limiter) Acquire(ctx context.Context, p Priority) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if err := l.admit(ctx, waitCtx, p); err != nil {
		return nil, err
	}
	release := l.releaser()

	if l.pacer != nil {
		if err := l.pacer.Wait(waitCtx); err != nil {
			release()
			return nil, l.waitError(ctx, err)
		}
	}
	return release, nil
}

func (l *Limiter) admit(ctx, waitCtx context.Context, p Priority) error {
	l.mu.Lock()
	if l.inFlight < l.limit && l.nobodyAhead(p) {
		l.inFlight++
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{}), class: &l.normal}
	if p == PriorityReplay {
		w.class = &l.replay
	}
	w.elem = w.class.PushBack(w)
	l.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-waitCtx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w.granted {
		// The slot was handed over while we were timing out; keep it.
		return nil
	}
	w.class.Remove(w.elem)
	return l.waitError(ctx, waitCtx.Err())
}

// nobodyAhead reports whether a caller of priority p may skip the queue.
// Must be called with l.mu held.
func (l *Limiter) nobodyAhead(p Priority) bool {
	if p == PriorityReplay {
		return l.replay.Len() == 0
	}
	return l.replay.Len() == 0 && l.normal.Len() == 0
}

func (l *Limiter) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(l.release)
	}
}

func (l *Limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight--
	for l.inFlight < l.limit {
		next := l.replay.Front()
		if next == nil {
			next = l.normal.Front()
		}
		if next == nil {
			return
		}
		w := next.Value.(*waiter)
		w.class.Remove(next)
		w.granted = true
		l.inFlight++
		close(w.ready)
	}
}

func (l *Limiter) waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err == nil {
		return nil
	}
	return common.ErrQueueTimeout
}

// InFlight returns the number of slots currently held.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Queued returns the number of callers waiting for a slot.
func (l *Limiter) Queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replay.Len() + l.normal.Len()
}
