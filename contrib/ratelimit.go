package contrib

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRateWindow and DefaultRateMax bound submission frequency to 5
	// per minute per user unless overridden.
	DefaultRateWindow = 60 * time.Second
	DefaultRateMax    = 5
)

type rateRecord struct {
	last  time.Time
	count int
}

// RateLimiter bounds per-user submission frequency with a sliding-window
// counter held in process memory. State is lost on restart, which at worst
// briefly resets limits. Safe for concurrent use.
type RateLimiter struct {
	mu     sync.Mutex
	users  map[string]*rateRecord
	window time.Duration
	max    int
}

// NewRateLimiter creates a limiter allowing max submissions per window.
// Non-positive arguments fall back to the defaults.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	if window <= 0 {
		window = DefaultRateWindow
	}
	if max <= 0 {
		max = DefaultRateMax
	}
	return &RateLimiter{users: make(map[string]*rateRecord), window: window, max: max}
}

// IsRateLimited records a submission attempt by username and reports whether
// it exceeds the window limit. The first attempt in a window counts one and
// is never limited; an attempt observed after the window elapsed resets the
// counter. Once the count exceeds the max, this and every further attempt
// inside the window is limited.
func (rl *RateLimiter) IsRateLimited(username string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rec, ok := rl.users[username]
	if !ok {
		rl.users[username] = &rateRecord{last: now, count: 1}
		return false
	}

	if now.Sub(rec.last) < rl.window {
		rec.count++
		if rec.count > rl.max {
			return true
		}
		rec.last = now
		return false
	}

	rec.last = now
	rec.count = 1
	return false
}

// StartPruning launches the background sweep that drops records idle for
// more than two windows. It returns immediately; the sweep stops when ctx is
// cancelled.
func (rl *RateLimiter) StartPruning(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.prune()
			}
		}
	}()
}

func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-2 * rl.window)
	for user, rec := range rl.users {
		if rec.last.Before(cutoff) {
			delete(rl.users, user)
		}
	}
}
