// Package status holds the most recent status text behind a single-slot, last-write-wins cache.
//
// The poller is the only writer. HTTP handlers read it on every request without blocking
// on the writer beyond a short critical section, and never wait for a new value to arrive.
package status

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the cache contents.
type Snapshot struct {
	Text      string
	UpdatedAt time.Time // zero until the first publish
	Sequence  uint64    // number of publishes so far
}

// Cache is a single-slot holder of the latest status text. The zero value is not usable; see [NewCache].
type Cache struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewCache returns a cache holding initial until the first [Cache.Publish].
func NewCache(initial string) *Cache {
	return &Cache{snap: Snapshot{Text: initial}, now: time.Now}
}

// Publish replaces the current value. It always succeeds and never waits on readers.
func (c *Cache) Publish(text string) {
	c.mu.Lock()
	c.snap = Snapshot{Text: text, UpdatedAt: c.now(), Sequence: c.snap.Sequence + 1}
	c.mu.Unlock()
}

// Current returns the latest published value, or the initial value before any publish.
func (c *Cache) Current() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Text
}

// Snapshot returns the latest value with its publish metadata.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}
