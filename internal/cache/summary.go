package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/analytics"
)

const summaryKey = "analytics:summary"

// SummaryCache holds the latest analytics summary until the history
// changes or the TTL runs out.
type SummaryCache struct {
	cache *Cache[analytics.Summary]

	// mu guards generation, which is bumped on every invalidation. A summary
	// computed from a snapshot taken before the change is never stored.
	mu         sync.Mutex
	generation uint64
}

// NewSummaryCache creates a new summary cache
func NewSummaryCache(ttl time.Duration) *SummaryCache {
	return &SummaryCache{cache: NewCache[analytics.Summary](ttl)}
}

// Generation returns the current invalidation counter. Read it before taking
// a history snapshot and pass it to Set.
func (sc *SummaryCache) Generation() uint64 {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.generation
}

// Get retrieves the cached summary
func (sc *SummaryCache) Get() (analytics.Summary, bool) {
	summary, found := sc.cache.Get(summaryKey)
	if found {
		slog.Debug("Analytics cache hit", "total", summary.TotalPredictions)
	}
	return summary, found
}

// Set caches a summary unless the history changed since generation was read.
func (sc *SummaryCache) Set(generation uint64, summary analytics.Summary) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if generation != sc.generation {
		slog.Debug("Discarding stale analytics summary", "generation", generation)
		return false
	}
	sc.cache.Set(summaryKey, summary)
	slog.Debug("Analytics summary cached", "total", summary.TotalPredictions)
	return true
}

// Invalidate drops the cached summary. It is registered as a history listener.
func (sc *SummaryCache) Invalidate() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.generation++
	sc.cache.Delete(summaryKey)
	slog.Debug("Analytics cache invalidated")
}

// GetStats returns cache statistics
func (sc *SummaryCache) GetStats() map[string]interface{} {
	return sc.cache.Stats()
}

// Close stops the underlying cache sweeper.
func (sc *SummaryCache) Close() {
	sc.cache.Close()
}
