package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"edusuite/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache shares tenant records between server instances. Redis faults
// degrade to a cache miss so resolution falls back to the directory.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a redis backed Cache; ttl <= 0 uses DefaultCacheTTL.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, code string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, cacheKey(code)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("tenant cache read failed", zap.String("code", code), zap.Error(err))
		}
		metrics.TenantCacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		c.logger.Warn("tenant cache entry corrupt", zap.String("code", code), zap.Error(err))
		metrics.TenantCacheMissesTotal.WithLabelValues("redis").Inc()
		return nil, false
	}

	metrics.TenantCacheHitsTotal.WithLabelValues("redis").Inc()
	return &t, true
}

// Set writes with SET EX; GET never touches the expiry.
func (c *RedisCache) Set(ctx context.Context, code string, t *Tenant) {
	if t == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		c.logger.Warn("tenant cache encode failed", zap.String("code", code), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey(code), data, c.ttl).Err(); err != nil {
		c.logger.Warn("tenant cache write failed", zap.String("code", code), zap.Error(err))
	}
}
