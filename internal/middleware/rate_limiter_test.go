package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, rps, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(&RateLimiterConfig{RequestsPerSecond: rps, BurstSize: burst})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 2, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"), "request %d", i)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys have separate buckets")

	*now = now.Add(500 * time.Millisecond)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	// refill is capped at the burst size
	*now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"))
	}
	assert.False(t, rl.Allow("a"))
}

func TestNewRateLimiter_FillsDefaults(t *testing.T) {
	rl := NewRateLimiter(&RateLimiterConfig{RequestsPerSecond: 5})
	defer rl.Stop()

	assert.Equal(t, 5, rl.config.BurstSize)
	assert.Equal(t, 5*time.Minute, rl.config.CleanupInterval)
	assert.Equal(t, 10*time.Minute, rl.config.IdleTTL)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ipLimiter, _ := newTestLimiter(t, 1, 1)
	tenantLimiter, _ := newTestLimiter(t, 1, 1)

	r := gin.New()
	r.GET("/ip", RateLimitByClientIP(ipLimiter), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/tenant",
		func(c *gin.Context) {
			if code := c.GetHeader("X-Tenant-Code"); code != "" {
				c.Set(TenantIDKey, "t-"+code)
			}
		},
		RateLimitByTenant(tenantLimiter),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(path, code string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if code != "" {
			req.Header.Set("X-Tenant-Code", code)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("/ip", ""))
	assert.Equal(t, http.StatusTooManyRequests, call("/ip", ""))

	assert.Equal(t, http.StatusOK, call("/tenant", "ACME"))
	assert.Equal(t, http.StatusTooManyRequests, call("/tenant", "ACME"))
	assert.Equal(t, http.StatusOK, call("/tenant", "BETA"))
	// unresolved requests are not counted against any tenant
	assert.Equal(t, http.StatusOK, call("/tenant", ""))
	assert.Equal(t, http.StatusOK, call("/tenant", ""))
}
