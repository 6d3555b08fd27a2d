package ratelimit

import (
	"sync"
	"time"
)

// counter is the process-global sliding fixed-window state (§4.5): a single
// cost pool shared by every request the plugin watches, hence the single
// mutex — unlike the throttle registry (one entry per host) or applied-mocks
// (one counter per mock URL), there is exactly one (remaining, resetTime)
// pair for the whole plugin instance, so a per-key structure would be
// needless machinery.
type counter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
}

func newCounter() *counter {
	return &counter{remaining: -1}
}

// Pool is the rate-limit plugin's process-wide cost pool, exported so a
// caller (the admin introspection API) can hold a reference to the same
// pool a plugin instance charges against, for read-only state reporting.
type Pool = counter

// NewPool creates an uninitialized cost pool; the first charge initializes
// remaining/resetTime from the plugin's Config.
func NewPool() *Pool {
	return newCounter()
}

// Snapshot reports the pool's current remaining count and window reset
// time without charging it. initialized is false until the first request
// has been charged (the window's Limit is whatever Config the caller
// already holds, since the pool itself is configuration-agnostic).
func (c *Pool) Snapshot() (remaining int, resetTime time.Time, initialized bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0, time.Time{}, false
	}
	return c.remaining, c.resetTime, true
}

// result describes the outcome of charging one request against the pool.
type result struct {
	remaining     int
	limit         int
	resetTime     time.Time
	exceeded      bool
	secondsToWait int
}

// charge applies cfg's cost to the pool, resetting the window first if
// uninitialized or expired (§4.5 steps 1-4).
func (c *counter) charge(cfg Config, now time.Time) result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remaining < 0 || now.After(c.resetTime) {
		c.resetTime = now.Add(time.Duration(cfg.ResetWindowSeconds) * time.Second)
		c.remaining = cfg.Limit
	}

	c.remaining -= cfg.CostPerRequest
	exceeded := c.remaining < 0
	if exceeded {
		c.remaining = 0
	}

	secondsToWait := int(c.resetTime.Sub(now).Seconds())
	if secondsToWait < 0 {
		secondsToWait = 0
	}

	return result{
		remaining:     c.remaining,
		limit:         cfg.Limit,
		resetTime:     c.resetTime,
		exceeded:      exceeded,
		secondsToWait: secondsToWait,
	}
}
