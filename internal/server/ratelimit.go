package server

import (
	"sync"
	"time"
)

const (
	// maxTrackedKeys caps the number of tracked rate-limit keys to prevent
	// memory exhaustion from attackers rotating source IPs/keys.
	maxTrackedKeys = 4096

	rateLimitWindow = 60 * time.Second
)

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

// webhookRateLimiter bounds requests per key in a sliding window. The
// tracked-key set is capped so rotating source keys cannot exhaust memory.
// Safe for concurrent use.
type webhookRateLimiter struct {
	mu      sync.Mutex
	maxHits int
	entries map[string]*rateLimitEntry
}

func newWebhookRateLimiter(maxPerMinute int) *webhookRateLimiter {
	return &webhookRateLimiter{
		maxHits: maxPerMinute,
		entries: make(map[string]*rateLimitEntry),
	}
}

func (r *webhookRateLimiter) enabled() bool { return r.maxHits > 0 }

// allow returns true if the key is within rate limits. Stale entries are
// pruned when approaching the cap.
func (r *webhookRateLimiter) allow(key string) bool {
	if !r.enabled() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	if len(r.entries) >= maxTrackedKeys {
		for k, e := range r.entries {
			if now.Sub(e.windowStart) >= rateLimitWindow {
				delete(r.entries, k)
			}
		}
		for len(r.entries) >= maxTrackedKeys {
			for k := range r.entries {
				delete(r.entries, k)
				break
			}
		}
	}

	e, ok := r.entries[key]
	if !ok || now.Sub(e.windowStart) >= rateLimitWindow {
		r.entries[key] = &rateLimitEntry{windowStart: now, count: 1}
		return true
	}

	e.count++
	return e.count <= r.maxHits
}
