package chat

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultClearInterval bounds memory held for seen message ids.
	DefaultClearInterval = 5 * time.Minute
	// DefaultFingerprintTTL is how long an identical line from the same
	// user is treated as a transport echo rather than a resend.
	DefaultFingerprintTTL = 10 * time.Second
)

// DedupGuard drops redelivered chat lines. Two layers: exact message ids
// already processed, and a short-TTL fingerprint of username plus message
// text for redeliveries that arrive under a fresh id. The id set is cleared
// wholesale on an interval instead of tracking per-entry expiry; a cleared
// id cannot recur because server-side ids are unique per delivery attempt
// and redelivery happens within seconds.
type DedupGuard struct {
	mu           sync.Mutex
	seen         map[string]struct{}
	fingerprints *gocache.Cache

	clearInterval  time.Duration
	fingerprintTTL time.Duration
}

// NewDedupGuard builds a guard; zero durations take the defaults.
func NewDedupGuard(clearInterval, fingerprintTTL time.Duration) *DedupGuard {
	if clearInterval <= 0 {
		clearInterval = DefaultClearInterval
	}
	if fingerprintTTL <= 0 {
		fingerprintTTL = DefaultFingerprintTTL
	}
	return &DedupGuard{
		seen:           make(map[string]struct{}),
		fingerprints:   gocache.New(fingerprintTTL, fingerprintTTL),
		clearInterval:  clearInterval,
		fingerprintTTL: fingerprintTTL,
	}
}

// Start launches the periodic id-set clear, stopping with the context.
func (g *DedupGuard) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(g.clearInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.mu.Lock()
				g.seen = make(map[string]struct{})
				g.mu.Unlock()
			}
		}
	}()
}

func fingerprintKey(username, message string) string {
	return username + "\x00" + message
}

// ShouldProcess reports whether a message is new. It does not record
// anything; call MarkProcessed once the message is accepted for dispatch so
// lines that never reach a handler do not burn their fingerprint.
func (g *DedupGuard) ShouldProcess(messageID, username, message string) bool {
	g.mu.Lock()
	_, dup := g.seen[messageID]
	g.mu.Unlock()
	if messageID != "" && dup {
		return false
	}
	if _, found := g.fingerprints.Get(fingerprintKey(username, message)); found {
		return false
	}
	return true
}

// MarkProcessed records a message id and its sender fingerprint.
func (g *DedupGuard) MarkProcessed(messageID, username, message string) {
	if messageID != "" {
		g.mu.Lock()
		g.seen[messageID] = struct{}{}
		g.mu.Unlock()
	}
	g.fingerprints.Set(fingerprintKey(username, message), struct{}{}, g.fingerprintTTL)
}
