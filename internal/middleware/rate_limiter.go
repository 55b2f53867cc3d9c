package middleware

import (
	"net/http"
	"sync"
	"time"

	"edusuite/internal/common"

	"github.com/gin-gonic/gin"
)

// RateLimiterConfig token bucket settings
type RateLimiterConfig struct {
	RequestsPerSecond int
	BurstSize         int
	CleanupInterval   time.Duration
	IdleTTL           time.Duration
}

// DefaultRateLimiterConfig 20 rps with bursts of 40
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		CleanupInterval:   5 * time.Minute,
		IdleTTL:           10 * time.Minute,
	}
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	config  *RateLimiterConfig
	buckets map[string]*bucket
	mu      sync.Mutex
	stopCh  chan struct{}
	now     func() time.Time
}

// NewRateLimiter starts a limiter and its cleanup goroutine; call Stop to release it.
func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config == nil {
		config = defaults
	}
	if config.BurstSize <= 0 {
		config.BurstSize = config.RequestsPerSecond
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaults.IdleTTL
	}
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	go rl.cleanup()
	return rl
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		rl.buckets[key] = &bucket{tokens: float64(rl.config.BurstSize - 1), lastUpdate: now}
		return rl.config.BurstSize > 0
	}

	b.tokens += now.Sub(b.lastUpdate).Seconds() * float64(rl.config.RequestsPerSecond)
	if b.tokens > float64(rl.config.BurstSize) {
		b.tokens = float64(rl.config.BurstSize)
	}
	b.lastUpdate = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, b := range rl.buckets {
				if now.Sub(b.lastUpdate) > rl.config.IdleTTL {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// RateLimitByClientIP limits per client address. Placed in front of tenant
// resolution it slows down probing for valid tenant codes.
func RateLimitByClientIP(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow("ip:" + c.ClientIP()) {
			common.AbortWithError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}

// RateLimitByTenant limits per resolved tenant. Must run after tenant resolution.
func RateLimitByTenant(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString(TenantIDKey)
		if tenantID == "" {
			c.Next()
			return
		}
		if !limiter.Allow("tenant:" + tenantID) {
			common.AbortWithError(c, http.StatusTooManyRequests, "Tenant request quota exceeded")
			return
		}
		c.Next()
	}
}
