package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/monitoring"
)

const (
	maxFallbackLimiters = 1000
	cleanupInterval     = time.Hour
)

// Config holds rate limiter configuration
type Config struct {
	PerMinute       int // requests per client IP per minute
	BurstMultiplier int // burst capacity of the in-memory fallback
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		PerMinute:       60,
		BurstMultiplier: 1,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter limits scoring requests per client IP. Counters live in Redis
// when it is reachable and in per-key token buckets otherwise.
type RateLimiter struct {
	redisClient *RedisClient
	config      Config
	metrics     *monitoring.Metrics

	fallbackLimiters map[string]*rate.Limiter
	fallbackMutex    sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter. redisClient may be disabled and
// metrics may be nil.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if config.PerMinute <= 0 {
		config.PerMinute = DefaultConfig().PerMinute
	}
	if config.BurstMultiplier <= 0 {
		config.BurstMultiplier = 1
	}

	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*rate.Limiter),
		stop:             make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		slog.Info("Prediction quotas shared through Redis", "per_minute", config.PerMinute)
	} else {
		slog.Warn("Prediction quotas counted per instance", "per_minute", config.PerMinute)
	}

	go rl.cleanupFallbackLimiters()

	return rl
}

// AllowIP checks whether ip may make another request this minute
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:predict:ip:%s", ip)
	return rl.allow(ctx, key, rl.config.PerMinute, time.Minute)
}

func (rl *RateLimiter) allow(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if rl.redisClient.IsEnabled() {
		result, err := rl.redisClient.take(ctx, key, limit, period)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(key, limit, period), nil
}

func (rl *RateLimiter) allowFallback(key string, limit int, period time.Duration) *Result {
	rl.fallbackMutex.Lock()
	limiter, exists := rl.fallbackLimiters[key]
	if !exists {
		every := rate.Every(period / time.Duration(limit))
		limiter = rate.NewLimiter(every, limit*rl.config.BurstMultiplier)
		rl.fallbackLimiters[key] = limiter
	}
	rl.fallbackMutex.Unlock()

	now := time.Now()
	result := &Result{
		Allowed: limiter.AllowN(now, 1),
		Limit:   limit,
	}

	tokens := limiter.TokensAt(now)
	if tokens > 0 {
		result.Remaining = int(tokens)
	}

	// Time until one full token is back.
	missing := 1 - tokens
	if missing < 0 {
		missing = 0
	}
	refill := time.Duration(missing * float64(period) / float64(limit))
	result.ResetAt = now.Add(refill)

	if !result.Allowed {
		result.RetryAfter = refill
		if result.RetryAfter <= 0 {
			result.RetryAfter = time.Second
		}
	}

	return result
}

// cleanupFallbackLimiters drops the fallback buckets once too many client
// keys have accumulated.
func (rl *RateLimiter) cleanupFallbackLimiters() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.fallbackMutex.Lock()
			if len(rl.fallbackLimiters) > maxFallbackLimiters {
				slog.Info("Cleaning up fallback rate limiters", "count", len(rl.fallbackLimiters))
				rl.fallbackLimiters = make(map[string]*rate.Limiter)
			}
			rl.fallbackMutex.Unlock()
		}
	}
}

// Backend reports where prediction quotas are counted right now
func (rl *RateLimiter) Backend(ctx context.Context) Backend {
	return rl.redisClient.Backend(ctx)
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"per_minute":        rl.config.PerMinute,
		"fallback_limiters": fallbackCount,
	}

	if pool := rl.redisClient.PoolStats(); pool != nil {
		stats["redis_pool"] = pool
	}

	return stats
}
