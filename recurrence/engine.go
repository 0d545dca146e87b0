package recurrence

import (
	"time"
)

// Engine wraps Generate with configuration and an optional expansion cache.
// Generate itself stays pure; the cache only memoizes its results.
type Engine struct {
	cache  *expansionCache
	config EngineConfig
}

// EngineConfig holds configuration options for the recurrence engine.
type EngineConfig struct {
	CacheEnabled bool
	CacheConfig  CacheConfig

	// MaxOccurrences caps every expansion. Values outside (0, MaxOccurrences]
	// fall back to the package ceiling, which is always enforced.
	MaxOccurrences int
}

// DefaultEngineConfig provides sensible defaults for production use.
var DefaultEngineConfig = EngineConfig{
	CacheEnabled:   true,
	CacheConfig:    DefaultCacheConfig,
	MaxOccurrences: MaxOccurrences,
}

// NewEngine creates a recurrence engine with default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// NewEngineWithConfig creates a recurrence engine with custom configuration.
func NewEngineWithConfig(config EngineConfig) *Engine {
	var cache *expansionCache
	if config.CacheEnabled {
		cache = newExpansionCache(config.CacheConfig)
	}
	return &Engine{
		cache:  cache,
		config: config,
	}
}

// Expand returns the occurrence starts for the rule anchored at anchor,
// consulting the cache when enabled.
func (e *Engine) Expand(anchor time.Time, rule Rule) ([]time.Time, error) {
	if e.cache == nil {
		return generate(anchor, rule, e.config.MaxOccurrences)
	}

	key := cacheKey(anchor, rule)
	if occurrences, ok := e.cache.get(key); ok {
		return occurrences, nil
	}

	occurrences, err := generate(anchor, rule, e.config.MaxOccurrences)
	if err != nil {
		return nil, err
	}
	e.cache.set(key, occurrences)
	return occurrences, nil
}

// CacheStats returns statistics for the expansion cache, or the zero value
// when caching is disabled.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.stats()
}

// Close stops the cache cleanup goroutine, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.close()
	}
}
