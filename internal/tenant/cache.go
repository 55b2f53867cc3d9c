package tenant

import (
	"context"
	"sync"
	"time"

	"edusuite/internal/common"
	"edusuite/internal/metrics"
)

// DefaultCacheTTL is the absolute lifetime of a cached tenant record.
const DefaultCacheTTL = 30 * time.Minute

const cacheKeyPrefix = "tenant_"

func cacheKey(code string) string {
	return cacheKeyPrefix + code
}

// Cache maps tenant code to tenant record. Entries expire a fixed TTL after
// insertion and reads never extend them. Implementations are shared by all
// requests and must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, code string) (*Tenant, bool)
	Set(ctx context.Context, code string, t *Tenant)
}

type cacheEntry struct {
	value     *Tenant
	expiresAt time.Time
}

// MemoryCache is a per-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache; ttl <= 0 uses DefaultCacheTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, code string) (*Tenant, bool) {
	key := cacheKey(code)

	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if !found {
		metrics.TenantCacheMissesTotal.WithLabelValues("memory").Inc()
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		// another request may have refreshed it meanwhile
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		metrics.TenantCacheMissesTotal.WithLabelValues("memory").Inc()
		return nil, false
	}

	metrics.TenantCacheHitsTotal.WithLabelValues("memory").Inc()
	return entry.value.Clone(), true
}

func (c *MemoryCache) Set(_ context.Context, code string, t *Tenant) {
	if t == nil {
		return
	}
	entry := cacheEntry{
		value:     t.Clone(),
		expiresAt: c.now().Add(c.ttl),
	}

	c.mu.Lock()
	c.entries[cacheKey(code)] = entry
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// WarmCache loads every live active tenant into cache and returns how many were stored.
func WarmCache(ctx context.Context, directory Directory, cache Cache) (int, error) {
	ctx, span := tracer.Start(ctx, "WarmCache")
	defer span.End()

	tenants, err := directory.Find(ctx, common.NotDeleted(), common.ActiveOnly())
	if err != nil {
		return 0, err
	}
	for _, t := range tenants {
		cache.Set(ctx, t.Code, t)
	}
	return len(tenants), nil
}
