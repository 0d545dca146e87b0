package recurrence

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// cacheEntry represents a cached expansion result.
type cacheEntry struct {
	occurrences []time.Time
	expiresAt   time.Time
	accessedAt  time.Time
}

// expansionCache memoizes Generate results keyed by anchor and rule.
type expansionCache struct {
	entries         map[string]*cacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// CacheConfig holds configuration for the expansion cache.
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults for expansion caching.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

func newExpansionCache(config CacheConfig) *expansionCache {
	cache := &expansionCache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	go cache.cleanupLoop()
	return cache
}

// cacheKey hashes the anchor and every rule field that affects expansion.
// DaysOfWeek is sorted first so set order does not split cache entries.
func cacheKey(anchor time.Time, rule Rule) string {
	hasher := sha256.New()

	fmt.Fprintf(hasher, "%d|%s|%d|%s|%d|%d",
		anchor.UnixNano(), rule.Frequency, rule.interval(), rule.Timezone, rule.Count, rule.DayOfMonth)

	if rule.EndDate != nil {
		fmt.Fprintf(hasher, "|end:%d", rule.EndDate.UnixNano())
	}
	if rule.WeekAndDay != nil {
		fmt.Fprintf(hasher, "|wd:%d/%d", rule.WeekAndDay.Week, rule.WeekAndDay.Day)
	}
	if len(rule.DaysOfWeek) > 0 {
		days := make([]time.Weekday, len(rule.DaysOfWeek))
		copy(days, rule.DaysOfWeek)
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		fmt.Fprintf(hasher, "|days:%v", days)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// get retrieves a cached result if it exists and hasn't expired.
func (c *expansionCache) get(key string) ([]time.Time, bool) {
	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.accessedAt = now
	c.mutex.Unlock()

	// Hand out a copy so callers cannot mutate the cached slice.
	out := make([]time.Time, len(entry.occurrences))
	copy(out, entry.occurrences)
	return out, true
}

// set stores an expansion result in the cache. The slice is copied, so later
// caller mutations cannot reach the entry.
func (c *expansionCache) set(key string, occurrences []time.Time) {
	stored := make([]time.Time, len(occurrences))
	copy(stored, occurrences)

	now := time.Now()
	entry := &cacheEntry{
		occurrences: stored,
		expiresAt:   now.Add(c.ttl),
		accessedAt:  now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries, then the least recently accessed entries
// while still over the limit. Callers must hold the write lock.
func (c *expansionCache) cleanup() {
	now := time.Now()

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
	byAccess := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		byAccess = append(byAccess, keyAccess{key: key, accessedAt: entry.accessedAt})
	}
	sort.Slice(byAccess, func(i, j int) bool {
		return byAccess[i].accessedAt.Before(byAccess[j].accessedAt)
	})

	for i := 0; i < len(byAccess) && len(c.entries) > c.maxEntries; i++ {
		delete(c.entries, byAccess[i].key)
	}
}

func (c *expansionCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// close stops the cleanup goroutine and clears the cache.
func (c *expansionCache) close() {
	close(c.stopCleanup)
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// stats returns cache statistics.
func (c *expansionCache) stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	expired := 0
	now := time.Now()
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

// CacheStats provides information about cache contents.
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
