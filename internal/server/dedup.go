package server

import (
	"sync"
	"time"
)

// seenTTL is how long a delivered update ID is remembered
const seenTTL = 5 * time.Minute

// seenCache drops redelivered updates
type seenCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func newSeenCache() *seenCache {
	return &seenCache{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// markSeen records id and reports whether it was already recorded
func (c *seenCache) markSeen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if ts, ok := c.seen[id]; ok && now.Sub(ts) < seenTTL {
		return true
	}
	c.seen[id] = now

	// Clean up expired records on every insert
	cutoff := now.Add(-seenTTL)
	for key, ts := range c.seen {
		if ts.Before(cutoff) {
			delete(c.seen, key)
		}
	}
	return false
}
