// Package cache implements the in-memory mention cache with a soft TTL and
// a longer stale window used as the fetch-failure fallback.
package cache

import (
	"sync"
	"time"

	"github.com/brandpulse/mentions-bot/internal/models"
)

const (
	// DefaultTTL is the serve-fresh window. Two hours balances quota
	// conservation against freshness for sources with daily caps.
	DefaultTTL = 2 * time.Hour
	// DefaultMaxStaleAge is the hard cutoff for the stale fallback.
	// Beyond a day, old data is worse than none.
	DefaultMaxStaleAge = 24 * time.Hour
)

type entry struct {
	data          []models.Mention
	storedAt      time.Time
	softExpiresAt time.Time
}

// Cache stores mention lists keyed by (source, brand). Entries live only
// for the process lifetime; nothing is persisted across restarts.
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]entry
	ttl         time.Duration
	maxStaleAge time.Duration
	now         func() time.Time
}

// New creates a cache with the given soft TTL and stale max-age.
// Non-positive values fall back to the defaults.
func New(ttl, maxStaleAge time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxStaleAge <= 0 {
		maxStaleAge = DefaultMaxStaleAge
	}

	return &Cache{
		entries:     make(map[string]entry),
		ttl:         ttl,
		maxStaleAge: maxStaleAge,
		now:         time.Now,
	}
}

func key(source, brand string) string {
	return source + "|" + brand
}

// Get returns the cached mentions for (source, brand) while the entry is
// still within its soft TTL.
func (c *Cache) Get(source, brand string) ([]models.Mention, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key(source, brand)]
	if !ok || !c.now().Before(e.softExpiresAt) {
		return nil, false
	}

	return cloneMentions(e.data), true
}

// GetStale returns cached mentions regardless of soft expiry, as long as
// the entry is younger than the stale max-age. Used only on the fetch
// error path.
func (c *Cache) GetStale(source, brand string) ([]models.Mention, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key(source, brand)]
	if !ok || c.now().Sub(e.storedAt) >= c.maxStaleAge {
		return nil, false
	}

	return cloneMentions(e.data), true
}

// Put overwrites the entry for (source, brand) using the cache's TTL.
// Fetch failures never call Put, so an existing entry stays available for
// GetStale until it ages out naturally.
func (c *Cache) Put(source, brand string, data []models.Mention) {
	c.PutTTL(source, brand, data, c.ttl)
}

// PutTTL overwrites the entry with an explicit soft TTL.
func (c *Cache) PutTTL(source, brand string, data []models.Mention, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key(source, brand)] = entry{
		data:          cloneMentions(data),
		storedAt:      now,
		softExpiresAt: now.Add(ttl),
	}
}

// Len reports the number of entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cloneMentions keeps callers and the cache from sharing a backing array.
func cloneMentions(in []models.Mention) []models.Mention {
	if in == nil {
		return nil
	}
	out := make([]models.Mention, len(in))
	copy(out, in)
	return out
}
