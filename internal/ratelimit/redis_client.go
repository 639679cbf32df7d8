package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// Backend names the store that is counting prediction quotas.
type Backend string

const (
	// BackendRedis shares quotas across every instance.
	BackendRedis Backend = "redis"
	// BackendLocal counts per instance because no Redis is configured.
	BackendLocal Backend = "local"
	// BackendDegraded counts per instance because the configured Redis is unreachable.
	BackendDegraded Backend = "degraded"
)

const pingTimeout = 5 * time.Second

var errRedisUnavailable = errors.New("redis quota store unavailable")

// RedisClient holds the shared per-IP prediction quotas. Without an address,
// or after a failed startup ping, it holds nothing and every quota is
// counted by the limiter's local buckets.
type RedisClient struct {
	addr   string
	rdb    *redis.Client
	quotas *redis_rate.Limiter
}

// NewRedisClient connects to addr. An empty addr is not an error. A failed
// ping returns a usable, disconnected client alongside the error.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	c := &RedisClient{addr: addr}
	if addr == "" {
		return c, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   2,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return c, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	c.rdb = rdb
	c.quotas = redis_rate.NewLimiter(rdb)
	slog.Info("Redis quota store connected", "addr", addr, "db", db)
	return c, nil
}

// IsEnabled reports whether quotas are shared through Redis
func (r *RedisClient) IsEnabled() bool {
	return r != nil && r.rdb != nil
}

// Configured reports whether a Redis address was given
func (r *RedisClient) Configured() bool {
	return r != nil && r.addr != ""
}

// take spends one request from key's quota of limit per period.
func (r *RedisClient) take(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if !r.IsEnabled() {
		return nil, errRedisUnavailable
	}

	res, err := r.quotas.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit,
		Burst:  limit,
		Period: period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis quota check for %s: %w", key, err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

// HealthCheck pings the quota store
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if !r.IsEnabled() {
		return errRedisUnavailable
	}
	return r.rdb.Ping(ctx).Err()
}

// Backend reports where quotas are counted right now. A configured store
// that fails its ping is degraded; requests are still limited per instance.
func (r *RedisClient) Backend(ctx context.Context) Backend {
	if !r.Configured() {
		return BackendLocal
	}
	if err := r.HealthCheck(ctx); err != nil {
		return BackendDegraded
	}
	return BackendRedis
}

func (r *RedisClient) Close() error {
	if !r.IsEnabled() {
		return nil
	}
	return r.rdb.Close()
}

// PoolStats returns connection pool counters, or nil without a connection
func (r *RedisClient) PoolStats() map[string]interface{} {
	if !r.IsEnabled() {
		return nil
	}

	stats := r.rdb.PoolStats()
	return map[string]interface{}{
		"addr":        r.addr,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}
}
