/*
cache.go - Orchestrator result cache

PURPOSE:
  Caches materialized schedule spans keyed by the exact query identity
  (scope, span, pattern ID + version). Supports concurrent reads, wholesale
  invalidation, and selective invalidation by date-range intersection (used
  when an exception is created or cancelled). A coarse RWMutex is enough:
  load is human-driven UI traffic, not high throughput.

EVICTION:
  Entries expire after a TTL and the map is capped; when over the cap, the
  least recently accessed entries go first. Pruning happens inline on Set -
  no background goroutine, this is a library.

SEE ALSO:
  - orchestrator.go: the only user
*/
package schedule

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	defaultCacheTTL        = 15 * time.Minute
	defaultCacheMaxEntries = 512
)

type cacheEntry struct {
	days       map[TimePoint]WorkScheduleDay
	start      TimePoint
	end        TimePoint
	expiresAt  time.Time
	accessedAt time.Time
}

type resultCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	ttl        time.Duration
	maxEntries int
}

func newResultCache(ttl time.Duration, maxEntries int) *resultCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &resultCache{
		entries:    make(map[string]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// cacheKey digests the exact query identity.
func cacheKey(scope Scope, start, end TimePoint, patternID PatternID, patternVersion int64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d", scope.Key(), start, end, patternID, patternVersion)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (c *resultCache) get(key string) (map[TimePoint]WorkScheduleDay, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	entry.accessedAt = now
	c.mu.Unlock()
	return entry.days, true
}

func (c *resultCache) set(key string, start, end TimePoint, days map[TimePoint]WorkScheduleDay) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		days:       days,
		start:      start,
		end:        end,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}
	if len(c.entries) > c.maxEntries {
		c.prune(now)
	}
}

// clear drops everything.
func (c *resultCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// clearRange drops entries whose cached span intersects [start, end].
func (c *resultCache) clearRange(start, end TimePoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if entry.start.BeforeOrEqual(end) && start.BeforeOrEqual(entry.end) {
			delete(c.entries, key)
		}
	}
}

// prune removes expired entries, then the least recently accessed until the
// map fits. Caller holds the write lock.
func (c *resultCache) prune(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	byAge := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		byAge = append(byAge, keyAccess{key: key, accessedAt: entry.accessedAt})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].accessedAt.Before(byAge[j].accessedAt) })

	for i := 0; i < len(byAge) && len(c.entries) > c.maxEntries; i++ {
		delete(c.entries, byAge[i].key)
	}
}

// CacheStats reports cache occupancy for the admin surface.
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}

func (c *resultCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	expired := 0
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expired++
		}
	}
	return CacheStats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expired,
		ActiveEntries:  len(c.entries) - expired,
	}
}
