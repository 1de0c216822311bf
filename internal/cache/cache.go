// Package cache implements the session-scoped command cache: at most one
// canonical result per fingerprint, explicit full flush, no eviction and no
// TTL within a session.
package cache

import (
	"sync"
	"time"

	"github.com/matijazezelj/monbot/pkg/models"
)

// Entry is one cached command result. Hits counts successful lookups and is
// display-only — it never drives eviction.
type Entry struct {
	Fingerprint string         `json:"fingerprint"`
	Command     models.Command `json:"command"`
	Result      any            `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
	Hits        int            `json:"hits"`
}

// Cache maps fingerprints to entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// Lookup returns the entry for a fingerprint, incrementing its hit counter.
// A miss is the normal trigger for dispatch, never an error.
func (c *Cache) Lookup(fingerprint string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	e.Hits++
	return e, true
}

// Store saves a result under the fingerprint. Storing an existing
// fingerprint overwrites it (manual refresh); normal dispatch only stores
// on miss.
func (c *Cache) Store(cmd models.Command, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cmd.Fingerprint] = &Entry{
		Fingerprint: cmd.Fingerprint,
		Command:     cmd,
		Result:      result,
		CreatedAt:   time.Now(),
	}
}

// Clear removes all entries. Idempotent; subsequent lookups miss until the
// cache is repopulated.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Len returns the number of cached commands.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats summarizes the cache for display.
type Stats struct {
	Entries   int `json:"entries"`
	TotalHits int `json:"total_hits"`
}

// Stats returns entry and hit totals.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Entries: len(c.entries)}
	for _, e := range c.entries {
		s.TotalHits += e.Hits
	}
	return s
}

// Entries returns a snapshot of all entries (display only).
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	return out
}
