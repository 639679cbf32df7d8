package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
)

const maxResponseSamples = 1000

// Metrics holds application metrics
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	PredictionCount     int64
	PreviewCount        int64
	InvalidInputCount   int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	// Response time samples for percentiles
	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	// Status code tracking
	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// Predictions per risk level
	RiskLevelCounts map[scoring.RiskLevel]int64
	RiskMutex       sync.RWMutex

	// Rate limit metrics
	RateLimitIPBlocks       int64
	RateLimitRedisErrors    int64
	RateLimitFallbackCount  int64
	RateLimitEndpointBlocks map[string]int64
	RateLimitMutex          sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{
		StartTime:               time.Now(),
		ResponseTimes:           make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus:    make(map[int]int64),
		RiskLevelCounts:         make(map[scoring.RiskLevel]int64),
		RateLimitEndpointBlocks: make(map[string]int64),
	}
	for _, level := range scoring.RiskLevels {
		m.RiskLevelCounts[level] = 0
	}
	return m
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementInvalidInput counts applicants rejected by validation
func (m *Metrics) IncrementInvalidInput() {
	atomic.AddInt64(&m.InvalidInputCount, 1)
}

// RecordPrediction counts a scored applicant. Previews are counted apart
// from recorded predictions.
func (m *Metrics) RecordPrediction(level scoring.RiskLevel, recorded bool) {
	if recorded {
		atomic.AddInt64(&m.PredictionCount, 1)
	} else {
		atomic.AddInt64(&m.PreviewCount, 1)
	}

	m.RiskMutex.Lock()
	m.RiskLevelCounts[level]++
	m.RiskMutex.Unlock()
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)
	m.ResponseTimesMutex.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetRiskLevelDistribution returns scored applicants per risk level
func (m *Metrics) GetRiskLevelDistribution() map[scoring.RiskLevel]int64 {
	m.RiskMutex.RLock()
	defer m.RiskMutex.RUnlock()

	distribution := make(map[scoring.RiskLevel]int64, len(m.RiskLevelCounts))
	for level, count := range m.RiskLevelCounts {
		distribution[level] = count
	}
	return distribution
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
}

// IncrementRateLimitEndpoint increments rate limit blocks for a specific endpoint
func (m *Metrics) IncrementRateLimitEndpoint(endpoint string) {
	m.RateLimitMutex.Lock()
	defer m.RateLimitMutex.Unlock()
	m.RateLimitEndpointBlocks[endpoint]++
}

// GetRateLimitStats returns rate limiting statistics
func (m *Metrics) GetRateLimitStats() map[string]interface{} {
	m.RateLimitMutex.RLock()
	endpointBlocksCopy := make(map[string]int64, len(m.RateLimitEndpointBlocks))
	for k, v := range m.RateLimitEndpointBlocks {
		endpointBlocksCopy[k] = v
	}
	m.RateLimitMutex.RUnlock()

	return map[string]interface{}{
		"ip_blocks":       atomic.LoadInt64(&m.RateLimitIPBlocks),
		"redis_errors":    atomic.LoadInt64(&m.RateLimitRedisErrors),
		"fallback_count":  atomic.LoadInt64(&m.RateLimitFallbackCount),
		"endpoint_blocks": endpointBlocksCopy,
	}
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"start_time":             m.StartTime.Format(time.RFC3339),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"avg_response_time_ms":   float64(avgResponseTime) / 1e6,
		"p50_response_time_ms":   float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":   float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":   float64(m.GetPercentileResponseTime(99)) / 1e6,

		"status_code_distribution": m.GetStatusCodeDistribution(),

		"predictions_recorded":    atomic.LoadInt64(&m.PredictionCount),
		"predictions_previewed":   atomic.LoadInt64(&m.PreviewCount),
		"invalid_inputs":          atomic.LoadInt64(&m.InvalidInputCount),
		"risk_level_distribution": m.GetRiskLevelDistribution(),

		"rate_limit": m.GetRateLimitStats(),

		"go_goroutines":       runtime.NumGoroutine(),
		"go_gc_count":         mem.NumGC,
		"go_heap_alloc_bytes": mem.HeapAlloc,
		"go_heap_sys_bytes":   mem.HeapSys,
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)
	atomic.StoreInt64(&m.PredictionCount, 0)
	atomic.StoreInt64(&m.PreviewCount, 0)
	atomic.StoreInt64(&m.InvalidInputCount, 0)
	atomic.StoreInt64(&m.AverageResponseTime, 0)
	atomic.StoreInt64(&m.RateLimitIPBlocks, 0)
	atomic.StoreInt64(&m.RateLimitRedisErrors, 0)
	atomic.StoreInt64(&m.RateLimitFallbackCount, 0)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.RiskMutex.Lock()
	for level := range m.RiskLevelCounts {
		m.RiskLevelCounts[level] = 0
	}
	m.RiskMutex.Unlock()

	m.RateLimitMutex.Lock()
	m.RateLimitEndpointBlocks = make(map[string]int64)
	m.RateLimitMutex.Unlock()

	m.StartTime = time.Now()
}
