package client

import "sync/atomic"

type counters struct {
	requests        atomic.Uint64
	attempts        atomic.Uint64
	retries         atomic.Uint64
	replays         atomic.Uint64
	queueTimeouts   atomic.Uint64
	unauthenticated atomic.Uint64
}

// Stats is a point-in-time snapshot of the session counters.
type Stats struct {
	Requests        uint64
	Attempts        uint64
	Retries         uint64
	Replays         uint64
	Refreshes       uint64
	RefreshFailures uint64
	QueueTimeouts   uint64
	Unauthenticated uint64
	InFlight        int
	Queued          int
}

func (c *Client) Stats() Stats {
	refreshes, failures := c.coord.Counters()
	return Stats{
		Requests:        c.stats.requests.Load(),
		Attempts:        c.stats.attempts.Load(),
		Retries:         c.stats.retries.Load(),
		Replays:         c.stats.replays.Load(),
		Refreshes:       refreshes,
		RefreshFailures: failures,
		QueueTimeouts:   c.stats.queueTimeouts.Load(),
		Unauthenticated: c.stats.unauthenticated.Load(),
		InFlight:        c.limiter.InFlight(),
		Queued:          c.limiter.Queued(),
	}
}
