package api

import (
	"edusuite/internal/auth"
	middlewarepkg "edusuite/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the API routes
func RegisterRoutes(router *gin.Engine, c *AppContainer, h *Handlers) {
	api := router.Group("/api")
	api.Use(auth.ActorMiddleware(c.JWTService, c.Config.Auth.DefaultActor, c.Logger))

	registerTenantRoutes(api, h)
	registerStudentRoutes(api, c, h)
}

// registerTenantRoutes tenant administration, no tenant header required
func registerTenantRoutes(apiGroup *gin.RouterGroup, h *Handlers) {
	tenants := apiGroup.Group("/tenants")
	{
		tenants.POST("", h.Tenant.CreateTenant)
		tenants.GET("", h.Tenant.ListTenants)
		tenants.POST("/cache/warmup", h.Tenant.WarmCache)
		tenants.GET("/code/:code", h.Tenant.GetTenantByCode)
		tenants.GET("/:id", h.Tenant.GetTenant)
		tenants.PUT("/:id", h.Tenant.UpdateTenant)
		tenants.DELETE("/:id", h.Tenant.DeleteTenant)
	}
}

// registerStudentRoutes tenant-scoped routes behind the request boundary
func registerStudentRoutes(apiGroup *gin.RouterGroup, c *AppContainer, h *Handlers) {
	students := apiGroup.Group("/students")
	students.Use(c.tenantBoundary()...)
	{
		students.POST("", h.Student.Create)
		students.GET("", h.Student.List)
		students.GET("/:id", h.Student.Get)
		students.PUT("/:id", h.Student.Update)
		students.DELETE("/:id", h.Student.Delete)
	}
}

// tenantBoundary is the middleware chain every tenant-scoped group mounts:
// per-IP limit, tenant resolution, per-tenant limit and the initialized guard.
func (c *AppContainer) tenantBoundary() []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, 4)

	limits := c.Config.Tenancy
	newLimiter := func() *middlewarepkg.RateLimiter {
		rl := middlewarepkg.NewRateLimiter(&middlewarepkg.RateLimiterConfig{
			RequestsPerSecond: limits.RateLimitPerSecond,
			BurstSize:         limits.RateLimitBurst,
		})
		c.limiters = append(c.limiters, rl)
		return rl
	}

	if limits.RateLimitPerSecond > 0 {
		byIP := newLimiter()
		chain = append(chain, middlewarepkg.RateLimitByClientIP(byIP))
	}

	chain = append(chain, middlewarepkg.TenantResolutionMiddleware(limits.HeaderName, c.NewResolver, c.Logger.Named("tenancy")))

	if limits.RateLimitPerSecond > 0 {
		byTenant := newLimiter()
		chain = append(chain, middlewarepkg.RateLimitByTenant(byTenant))
	}

	return append(chain, middlewarepkg.RequireTenant())
}
